package database

import (
	"context"

	"github.com/google/uuid"
)

const articleColumns = `id, title, slug, excerpt, content, author_id, author_name, category_id,
	tags, status, featured_image, seo_title, seo_description, view_count, like_count,
	comment_count, reading_time_minutes, published_at, created_at, updated_at, deleted_at`

func scanArticle(row interface{ Scan(dest ...any) error }) (Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.AuthorID, &a.AuthorName, &a.CategoryID,
		&a.Tags, &a.Status, &a.FeaturedImage, &a.SEOTitle, &a.SEODescription, &a.ViewCount, &a.LikeCount,
		&a.CommentCount, &a.ReadingTimeMinutes, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	return a, err
}

type CreateArticleParams struct {
	Title              string
	Slug               string
	Excerpt            string
	Content            string
	AuthorID           uuid.UUID
	AuthorName         string
	CategoryID         *uuid.UUID
	Tags               []string
	Status             string
	FeaturedImage      *string
	SEOTitle           string
	SEODescription     string
	ReadingTimeMinutes int32
	Publish            bool
}

func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO articles (title, slug, excerpt, content, author_id, author_name, category_id,
			tags, status, featured_image, seo_title, seo_description, reading_time_minutes, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			CASE WHEN $14 THEN now() ELSE NULL END)
		RETURNING `+articleColumns,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.AuthorID, arg.AuthorName, arg.CategoryID,
		arg.Tags, arg.Status, arg.FeaturedImage, arg.SEOTitle, arg.SEODescription, arg.ReadingTimeMinutes,
		arg.Publish)
	return scanArticle(row)
}

func (q *Queries) GetArticleByID(ctx context.Context, id uuid.UUID) (Article, error) {
	row := q.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

type UpdateArticleParams struct {
	ID                 uuid.UUID
	Title              *string
	Slug               *string
	Excerpt            *string
	Content            *string
	CategoryID         *uuid.UUID
	Tags               []string // nil leaves tags unchanged
	Status             *string
	FeaturedImage      *string
	SEOTitle           *string
	SEODescription     *string
	ReadingTimeMinutes *int32
	SetPublishedAt     bool // stamp published_at now (draft -> published)
}

func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (Article, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE articles
		SET title = COALESCE($2, title),
		    slug = COALESCE($3, slug),
		    excerpt = COALESCE($4, excerpt),
		    content = COALESCE($5, content),
		    category_id = COALESCE($6, category_id),
		    tags = COALESCE($7, tags),
		    status = COALESCE($8, status),
		    featured_image = COALESCE($9, featured_image),
		    seo_title = COALESCE($10, seo_title),
		    seo_description = COALESCE($11, seo_description),
		    reading_time_minutes = COALESCE($12, reading_time_minutes),
		    published_at = CASE WHEN $13 AND published_at IS NULL THEN now() ELSE published_at END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+articleColumns,
		arg.ID, arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.CategoryID, arg.Tags,
		arg.Status, arg.FeaturedImage, arg.SEOTitle, arg.SEODescription, arg.ReadingTimeMinutes,
		arg.SetPublishedAt)
	return scanArticle(row)
}

func (q *Queries) SoftDeleteArticle(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE articles SET status = 'deleted', deleted_at = now(), updated_at = now() WHERE id = $1`, id)
	return err
}

func (q *Queries) HardDeleteArticle(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	return err
}

func (q *Queries) IncrementArticleViews(ctx context.Context, id uuid.UUID, delta int64) error {
	_, err := q.db.Exec(ctx, `UPDATE articles SET view_count = view_count + $2 WHERE id = $1`, id, delta)
	return err
}

type ListArticlesParams struct {
	Status     *string
	CategoryID *uuid.UUID
	Tag        *string
	AuthorID   *uuid.UUID
	Search     *string
	Limit      int32
	Offset     int32
}

func (q *Queries) ListArticles(ctx context.Context, arg ListArticlesParams) ([]Article, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::uuid IS NULL OR category_id = $2)
		  AND ($3::text IS NULL OR $3 = ANY(tags))
		  AND ($4::uuid IS NULL OR author_id = $4)
		  AND ($5::text IS NULL OR title ILIKE '%' || $5 || '%' OR content ILIKE '%' || $5 || '%')
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT $6 OFFSET $7`,
		arg.Status, arg.CategoryID, arg.Tag, arg.AuthorID, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (q *Queries) CountArticles(ctx context.Context, arg ListArticlesParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*)
		FROM articles
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::uuid IS NULL OR category_id = $2)
		  AND ($3::text IS NULL OR $3 = ANY(tags))
		  AND ($4::uuid IS NULL OR author_id = $4)
		  AND ($5::text IS NULL OR title ILIKE '%' || $5 || '%' OR content ILIKE '%' || $5 || '%')`,
		arg.Status, arg.CategoryID, arg.Tag, arg.AuthorID, arg.Search).Scan(&count)
	return count, err
}

// categories

type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description *string
	ParentID    *uuid.UUID
	SortOrder   int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description, parent_id, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at`,
		arg.Name, arg.Slug, arg.Description, arg.ParentID, arg.SortOrder).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) GetCategoryByID(ctx context.Context, id uuid.UUID) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, `
		SELECT id, name, slug, description, parent_id, sort_order, is_active, created_at, updated_at
		FROM categories WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CategoryWithCount includes the published article count used by the
// category tree response and the sitemap.
type CategoryWithCount struct {
	Category
	ArticleCount int64
}

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryWithCount, error) {
	rows, err := q.db.Query(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.parent_id, c.sort_order, c.is_active,
		       c.created_at, c.updated_at,
		       (SELECT count(*) FROM articles a WHERE a.category_id = c.id AND a.status = 'published')
		FROM categories c
		ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []CategoryWithCount
	for rows.Next() {
		var c CategoryWithCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.SortOrder,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.ArticleCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// tags

type CreateTagParams struct {
	Name        string
	DisplayName string
	Slug        string
	Color       string
}

func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	var t Tag
	err := q.db.QueryRow(ctx, `
		INSERT INTO tags (name, display_name, slug, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, display_name, slug, color, usage_count, created_at`,
		arg.Name, arg.DisplayName, arg.Slug, arg.Color).Scan(
		&t.ID, &t.Name, &t.DisplayName, &t.Slug, &t.Color, &t.UsageCount, &t.CreatedAt)
	return t, err
}

func (q *Queries) GetTagByName(ctx context.Context, name string) (Tag, error) {
	var t Tag
	err := q.db.QueryRow(ctx, `
		SELECT id, name, display_name, slug, color, usage_count, created_at
		FROM tags WHERE name = $1`, name).Scan(
		&t.ID, &t.Name, &t.DisplayName, &t.Slug, &t.Color, &t.UsageCount, &t.CreatedAt)
	return t, err
}

func (q *Queries) ListTags(ctx context.Context, limit int32) ([]Tag, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, display_name, slug, color, usage_count, created_at
		FROM tags ORDER BY usage_count DESC, name LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Slug, &t.Color, &t.UsageCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// IncrementTagUsage bumps usage_count for each named tag (called when an
// article referencing them is created or published).
func (q *Queries) IncrementTagUsage(ctx context.Context, names []string) error {
	_, err := q.db.Exec(ctx, `UPDATE tags SET usage_count = usage_count + 1 WHERE name = ANY($1)`, names)
	return err
}

// comments

type CreateCommentParams struct {
	ArticleID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	ParentID  *uuid.UUID
	Content   string
}

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	var c Comment
	err := q.db.QueryRow(ctx, `
		INSERT INTO comments (article_id, user_id, user_name, parent_id, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, article_id, user_id, user_name, parent_id, content, status, like_count, created_at`,
		arg.ArticleID, arg.UserID, arg.UserName, arg.ParentID, arg.Content).Scan(
		&c.ID, &c.ArticleID, &c.UserID, &c.UserName, &c.ParentID, &c.Content, &c.Status, &c.LikeCount, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListComments(ctx context.Context, articleID uuid.UUID, status string) ([]Comment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, article_id, user_id, user_name, parent_id, content, status, like_count, created_at
		FROM comments WHERE article_id = $1 AND status = $2
		ORDER BY created_at`, articleID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.UserID, &c.UserName, &c.ParentID, &c.Content,
			&c.Status, &c.LikeCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (q *Queries) SetCommentStatus(ctx context.Context, id uuid.UUID, status string) (Comment, error) {
	var c Comment
	err := q.db.QueryRow(ctx, `
		UPDATE comments SET status = $2 WHERE id = $1
		RETURNING id, article_id, user_id, user_name, parent_id, content, status, like_count, created_at`,
		id, status).Scan(
		&c.ID, &c.ArticleID, &c.UserID, &c.UserName, &c.ParentID, &c.Content, &c.Status, &c.LikeCount, &c.CreatedAt)
	return c, err
}

func (q *Queries) IncrementArticleComments(ctx context.Context, articleID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE articles SET comment_count = comment_count + 1 WHERE id = $1`, articleID)
	return err
}

// CountArticlesByStatus supports the admin analytics overview.
func (q *Queries) CountArticlesByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.Query(ctx, `SELECT status, count(*) FROM articles GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
