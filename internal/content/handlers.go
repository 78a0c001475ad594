package content

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/api"
	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/content/seo"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
)

const siteBaseURL = "https://mathservice.com"

// Handlers carries the dependencies of the content endpoints.
type Handlers struct {
	queries *database.Queries
	views   *ViewCounter
}

func NewHandlers(queries *database.Queries, views *ViewCounter) *Handlers {
	return &Handlers{queries: queries, views: views}
}

// RegisterRoutes attaches the content routes. Reads are public; writes
// require an access token with the right role.
func RegisterRoutes(h *Handlers, tokens *auth.TokenService, blacklist *auth.SessionBlacklist) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/articles", h.HandleListArticles)
		r.Get("/articles/{id}", h.HandleGetArticle)
		r.Get("/articles/{id}/comments", h.HandleListComments)
		r.Get("/categories", h.HandleListCategories)
		r.Get("/tags", h.HandleListTags)
		r.Get("/search", h.HandleSearch)
		r.Get("/sitemap.xml", h.HandleSitemap)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, blacklist, audit.NewRecorder(h.queries)))

			r.Post("/articles/{id}/comments", h.HandleCreateComment)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles("Insufficient permissions",
					auth.RoleAuthor, auth.RoleAdmin, auth.RoleSuperAdmin))
				r.Post("/articles", h.HandleCreateArticle)
				r.Put("/articles/{id}", h.HandleUpdateArticle)
				r.Delete("/articles/{id}", h.HandleDeleteArticle)
				r.Get("/seo/analyze/{id}", h.HandleSEOAnalyze)
				r.Get("/analytics/articles/{id}", h.HandleArticleAnalytics)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles("Admin access required", auth.RoleAdmin, auth.RoleSuperAdmin))
				r.Post("/categories", h.HandleCreateCategory)
				r.Post("/tags", h.HandleCreateTag)
				r.Put("/comments/{id}/status", h.HandleModerateComment)
			})
		})
	}
}

// HandleListArticles godoc
//
//	@Summary	List articles with filters
//	@Tags		Content
//	@Produce	json
//	@Param		status		query	string	false	"status filter (default published)"
//	@Param		category	query	string	false	"category id"
//	@Param		tag			query	string	false	"tag name"
//	@Param		search		query	string	false	"title/content substring"
//	@Router		/articles [get]
func (h *Handlers) HandleListArticles(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	status := r.URL.Query().Get("status")
	if status == "" {
		status = "published"
	}
	params := database.ListArticlesParams{
		Status: &status,
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if v := r.URL.Query().Get("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid category id"))
			return
		}
		params.CategoryID = &id
	}
	if v := r.URL.Query().Get("tag"); v != "" {
		params.Tag = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		params.Search = &v
	}

	articles, err := h.queries.ListArticles(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list articles"))
		return
	}
	total, err := h.queries.CountArticles(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count articles"))
		return
	}

	items := make([]map[string]any, 0, len(articles))
	for _, a := range articles {
		items = append(items, articleSummary(a))
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"articles":   items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// HandleGetArticle godoc
//
//	@Summary	One article by id; counts the view
//	@Tags		Content
//	@Produce	json
//	@Router		/articles/{id} [get]
func (h *Handlers) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}

	h.views.Record(r.Context(), article.ID)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"article": articleDetail(article),
	})
}

type articleRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	CategoryID     string   `json:"category_id"`
	Tags           []string `json:"tags"`
	Status         string   `json:"status"`
	Excerpt        string   `json:"excerpt"`
	FeaturedImage  string   `json:"featured_image"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
}

// HandleCreateArticle godoc
//
//	@Summary	Create an article; author or admin only
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/articles [post]
func (h *Handlers) HandleCreateArticle(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	var req articleRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Title == "" {
		api.RespondWithError(w, r, api.NewValidationError("Title is required"))
		return
	}
	if req.Content == "" {
		api.RespondWithError(w, r, api.NewValidationError("Content is required"))
		return
	}
	if req.CategoryID == "" {
		api.RespondWithError(w, r, api.NewValidationError("Category is required"))
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid category"))
		return
	}
	if _, err := h.queries.GetCategoryByID(r.Context(), categoryID); err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid category"))
		return
	}

	if validation := ValidateContent(req.Content); !validation.IsValid {
		api.RespondWithError(w, r, api.NewValidationError(validation.Errors[0]))
		return
	}
	cleaned := Sanitize(req.Content)

	status := req.Status
	if status == "" {
		status = "draft"
	}
	excerpt := req.Excerpt
	if excerpt == "" {
		excerpt = Excerpt(cleaned)
	}
	seoTitle := req.SEOTitle
	if seoTitle == "" {
		seoTitle = req.Title
	}
	seoDescription := req.SEODescription
	if seoDescription == "" {
		seoDescription = MetaDescription(cleaned)
	}

	var featuredImage *string
	if req.FeaturedImage != "" {
		featuredImage = &req.FeaturedImage
	}

	article, err := h.queries.CreateArticle(r.Context(), database.CreateArticleParams{
		Title:              req.Title,
		Slug:               Slugify(req.Title),
		Excerpt:            excerpt,
		Content:            cleaned,
		AuthorID:           principal.UserID,
		AuthorName:         principal.Email,
		CategoryID:         &categoryID,
		Tags:               normalizeTags(req.Tags),
		Status:             status,
		FeaturedImage:      featuredImage,
		SEOTitle:           seoTitle,
		SEODescription:     seoDescription,
		ReadingTimeMinutes: ReadingTime(cleaned),
		Publish:            status == "published",
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create article"))
		return
	}

	if len(article.Tags) > 0 {
		if err := h.queries.IncrementTagUsage(r.Context(), article.Tags); err != nil {
			logger.ContextRequestLogger(r.Context()).Warn("failed to increment tag usage",
				slog.String("error", err.Error()))
		}
	}

	api.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"article": articleDetail(article),
	})
}

// HandleUpdateArticle godoc
//
//	@Summary	Update an article; owner or admin only
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/articles/{id} [put]
func (h *Handlers) HandleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}
	if article.AuthorID != principal.UserID && !principal.IsAdmin() {
		api.RespondWithError(w, r, api.NewForbiddenError("You can only edit your own articles"))
		return
	}

	var req articleRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}

	params := database.UpdateArticleParams{ID: article.ID}
	if req.Title != "" && req.Title != article.Title {
		slug := Slugify(req.Title)
		params.Title = &req.Title
		params.Slug = &slug
	}
	if req.Content != "" {
		if validation := ValidateContent(req.Content); !validation.IsValid {
			api.RespondWithError(w, r, api.NewValidationError(validation.Errors[0]))
			return
		}
		cleaned := Sanitize(req.Content)
		readingTime := ReadingTime(cleaned)
		params.Content = &cleaned
		params.ReadingTimeMinutes = &readingTime
	}
	if req.Excerpt != "" {
		params.Excerpt = &req.Excerpt
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid category"))
			return
		}
		if _, err := h.queries.GetCategoryByID(r.Context(), categoryID); err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid category"))
			return
		}
		params.CategoryID = &categoryID
	}
	if req.Tags != nil {
		params.Tags = normalizeTags(req.Tags)
	}
	if req.FeaturedImage != "" {
		params.FeaturedImage = &req.FeaturedImage
	}
	if req.SEOTitle != "" {
		params.SEOTitle = &req.SEOTitle
	}
	if req.SEODescription != "" {
		params.SEODescription = &req.SEODescription
	}
	if req.Status != "" {
		params.Status = &req.Status
		params.SetPublishedAt = article.Status != "published" && req.Status == "published"
	}

	updated, err := h.queries.UpdateArticle(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to update article"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"article": articleDetail(updated),
	})
}

// HandleDeleteArticle godoc
//
//	@Summary	Delete an article; soft by default, hard with ?hard=true
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/articles/{id} [delete]
func (h *Handlers) HandleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}
	if article.AuthorID != principal.UserID && !principal.IsAdmin() {
		api.RespondWithError(w, r, api.NewForbiddenError("You can only edit your own articles"))
		return
	}

	if r.URL.Query().Get("hard") == "true" {
		if err := h.queries.HardDeleteArticle(r.Context(), article.ID); err != nil {
			api.RespondWithError(w, r, api.WrapInternalError(err, "failed to delete article"))
			return
		}
		api.RespondWithSuccess(w, http.StatusOK, map[string]any{
			"message": "Article permanently deleted",
		})
		return
	}

	if err := h.queries.SoftDeleteArticle(r.Context(), article.ID); err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to delete article"))
		return
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Article moved to trash",
	})
}

// HandleListCategories godoc
//
//	@Summary	Category tree with article counts
//	@Tags		Content
//	@Produce	json
//	@Router		/categories [get]
func (h *Handlers) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list categories"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"categories": categoryTree(categories),
	})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	SortOrder   int32  `json:"sort_order"`
}

// HandleCreateCategory godoc
//
//	@Summary	Create a category; admin only
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/categories [post]
func (h *Handlers) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Name == "" {
		api.RespondWithError(w, r, api.NewValidationError("Category name is required"))
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		id, err := uuid.Parse(req.ParentID)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid parent category"))
			return
		}
		if _, err := h.queries.GetCategoryByID(r.Context(), id); err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid parent category"))
			return
		}
		parentID = &id
	}

	var description *string
	if req.Description != "" {
		description = &req.Description
	}

	category, err := h.queries.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:        req.Name,
		Slug:        CategorySlug(req.Name),
		Description: description,
		ParentID:    parentID,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create category"))
		return
	}

	api.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"category": categoryView(database.CategoryWithCount{Category: category}),
	})
}

// HandleListTags godoc
//
//	@Summary	Tags sorted by popularity
//	@Tags		Content
//	@Produce	json
//	@Router		/tags [get]
func (h *Handlers) HandleListTags(w http.ResponseWriter, r *http.Request) {
	limit := int32(50)
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = int32(v)
	}

	tags, err := h.queries.ListTags(r.Context(), limit)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list tags"))
		return
	}

	items := make([]map[string]any, 0, len(tags))
	for _, t := range tags {
		items = append(items, map[string]any{
			"id":           t.ID,
			"name":         t.Name,
			"display_name": t.DisplayName,
			"slug":         t.Slug,
			"color":        t.Color,
			"usage_count":  t.UsageCount,
		})
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{"tags": items})
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HandleCreateTag godoc
//
//	@Summary	Create a tag; admin only
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/tags [post]
func (h *Handlers) HandleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Name == "" {
		api.RespondWithError(w, r, api.NewValidationError("Tag name is required"))
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if _, err := h.queries.GetTagByName(r.Context(), name); err == nil {
		api.RespondWithError(w, r, api.NewConflictError("Tag already exists"))
		return
	}

	color := req.Color
	if color == "" {
		color = "#007bff"
	}

	tag, err := h.queries.CreateTag(r.Context(), database.CreateTagParams{
		Name:        name,
		DisplayName: strings.TrimSpace(req.Name),
		Slug:        Slugify(name),
		Color:       color,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			api.RespondWithError(w, r, api.NewConflictError("Tag already exists"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create tag"))
		return
	}

	api.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"tag": map[string]any{
			"id":           tag.ID,
			"name":         tag.Name,
			"display_name": tag.DisplayName,
			"slug":         tag.Slug,
			"color":        tag.Color,
		},
	})
}

// HandleListComments godoc
//
//	@Summary	Approved comments of an article, replies nested one level
//	@Tags		Content
//	@Produce	json
//	@Router		/articles/{id}/comments [get]
func (h *Handlers) HandleListComments(w http.ResponseWriter, r *http.Request) {
	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}

	comments, err := h.queries.ListComments(r.Context(), article.ID, "approved")
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list comments"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"comments": nestComments(comments),
	})
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

// HandleCreateComment godoc
//
//	@Summary	Comment on an article; pending moderation
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/articles/{id}/comments [post]
func (h *Handlers) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		api.RespondWithError(w, r, api.NewValidationError("Comment content is required"))
		return
	}
	if len(strings.TrimSpace(req.Content)) < 10 {
		api.RespondWithError(w, r, api.NewValidationError("Comment must be at least 10 characters"))
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		id, err := uuid.Parse(req.ParentID)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid parent comment"))
			return
		}
		parentID = &id
	}

	comment, err := h.queries.CreateComment(r.Context(), database.CreateCommentParams{
		ArticleID: article.ID,
		UserID:    principal.UserID,
		UserName:  principal.Email,
		ParentID:  parentID,
		Content:   strings.TrimSpace(req.Content),
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create comment"))
		return
	}

	api.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"message": "Comment submitted for approval",
		"comment": commentView(comment),
	})
}

type moderateRequest struct {
	Status string `json:"status"`
}

// HandleModerateComment godoc
//
//	@Summary	Approve or reject a comment; admin only
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/comments/{id}/status [put]
func (h *Handlers) HandleModerateComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid comment id"))
		return
	}

	var req moderateRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Status != "approved" && req.Status != "rejected" {
		api.RespondWithError(w, r, api.NewValidationError("Status must be approved or rejected"))
		return
	}

	comment, err := h.queries.SetCommentStatus(r.Context(), commentID, req.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewNotFoundError("Comment not found"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to moderate comment"))
		return
	}
	if req.Status == "approved" {
		if err := h.queries.IncrementArticleComments(r.Context(), comment.ArticleID); err != nil {
			logger.ContextRequestLogger(r.Context()).Warn("failed to increment comment count",
				slog.String("error", err.Error()))
		}
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"comment": commentView(comment),
	})
}

// HandleSearch godoc
//
//	@Summary	Full-text search over articles, categories and tags
//	@Tags		Content
//	@Produce	json
//	@Param		q	query	string	true	"query (min 3 characters)"
//	@Router		/search [get]
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 3 {
		api.RespondWithError(w, r, api.NewValidationError("Search query must be at least 3 characters"))
		return
	}

	status := "published"
	articles, err := h.queries.ListArticles(r.Context(), database.ListArticlesParams{
		Status: &status,
		Search: &query,
		Limit:  50,
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "search failed"))
		return
	}

	hits := make([]SearchHit, 0, len(articles))
	for _, a := range articles {
		hits = append(hits, SearchHit{
			Type:      "article",
			ID:        a.ID.String(),
			Title:     a.Title,
			Slug:      a.Slug,
			Highlight: Highlight(a.Content, query),
			Relevance: ScoreArticle(a, query),
		})
	}

	categories, err := h.queries.ListCategories(r.Context())
	if err == nil {
		q := strings.ToLower(query)
		for _, c := range categories {
			if c.IsActive && strings.Contains(strings.ToLower(c.Name), q) {
				hits = append(hits, SearchHit{Type: "category", ID: c.ID.String(), Title: c.Name, Slug: c.Slug, Relevance: 3})
			}
		}
	}
	tags, err := h.queries.ListTags(r.Context(), 200)
	if err == nil {
		q := strings.ToLower(query)
		for _, t := range tags {
			if strings.Contains(t.Name, q) {
				hits = append(hits, SearchHit{Type: "tag", ID: t.ID.String(), Title: t.DisplayName, Slug: t.Slug, Relevance: 2})
			}
		}
	}

	sortHitsByRelevance(hits)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"query":          query,
		"results":        hits,
		"total":          len(hits),
		"search_time_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

// HandleSEOAnalyze godoc
//
//	@Summary	SEO report for an article; author or admin only
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/seo/analyze/{id} [get]
func (h *Handlers) HandleSEOAnalyze(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}
	if article.AuthorID != principal.UserID && !principal.IsAdmin() {
		api.RespondWithError(w, r, api.NewForbiddenError("You can only edit your own articles"))
		return
	}

	keyword := r.URL.Query().Get("keyword")
	report := seo.Analyze(seo.Input{
		Title:           article.Title,
		Content:         article.Content,
		MetaDescription: article.SEODescription,
		FocusKeyword:    keyword,
	})

	schema := seo.ArticleSchema(seo.ArticleSchemaInput{
		Title:           article.Title,
		Slug:            article.Slug,
		MetaDescription: article.SEODescription,
		AuthorName:      article.AuthorName,
		Keywords:        article.Tags,
		WordCount:       WordCount(article.Content),
		PublishedAt:     article.PublishedAt,
		UpdatedAt:       article.UpdatedAt,
	})

	metadata := seo.ValidateMetadata(seo.Metadata{
		Title:           article.Title,
		Slug:            article.Slug,
		MetaDescription: article.SEODescription,
	})

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"report":   report,
		"schema":   schema,
		"metadata": metadata,
	})
}

// HandleArticleAnalytics godoc
//
//	@Summary	View and engagement figures for an article
//	@Tags		Content
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/analytics/articles/{id} [get]
func (h *Handlers) HandleArticleAnalytics(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	article, ok := h.loadArticle(w, r)
	if !ok {
		return
	}
	if article.AuthorID != principal.UserID && !principal.IsAdmin() {
		api.RespondWithError(w, r, api.NewForbiddenError("You can only edit your own articles"))
		return
	}

	var engagement float64
	if article.ViewCount > 0 {
		engagement = float64(article.LikeCount+article.CommentCount) / float64(article.ViewCount) * 100
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"analytics": map[string]any{
			"article_id":      article.ID,
			"views":           article.ViewCount,
			"likes":           article.LikeCount,
			"comments":        article.CommentCount,
			"engagement_rate": engagement,
			"reading_time":    article.ReadingTimeMinutes,
			"published_at":    article.PublishedAt,
		},
	})
}

// HandleSitemap godoc
//
//	@Summary	sitemap.xml for published content
//	@Tags		Content
//	@Produce	xml
//	@Router		/sitemap.xml [get]
func (h *Handlers) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	status := "published"
	articles, err := h.queries.ListArticles(r.Context(), database.ListArticlesParams{
		Status: &status,
		Limit:  5000,
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to build sitemap"))
		return
	}
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to build sitemap"))
		return
	}

	now := time.Now()
	var sitemapArticles []seo.SitemapArticle
	for _, a := range articles {
		published := a.CreatedAt
		if a.PublishedAt != nil {
			published = *a.PublishedAt
		}
		sitemapArticles = append(sitemapArticles, seo.SitemapArticle{
			Slug:        a.Slug,
			ViewCount:   a.ViewCount,
			PublishedAt: published,
			UpdatedAt:   a.UpdatedAt,
		})
	}
	var sitemapCategories []seo.SitemapCategory
	for _, c := range categories {
		if c.IsActive {
			sitemapCategories = append(sitemapCategories, seo.SitemapCategory{
				Slug:      c.Slug,
				UpdatedAt: c.UpdatedAt,
			})
		}
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(seo.GenerateSitemap(siteBaseURL, sitemapCategories, sitemapArticles, now)))
}

// loadArticle parses the {id} URL parameter and loads the article,
// writing the error response itself when either step fails.
func (h *Handlers) loadArticle(w http.ResponseWriter, r *http.Request) (database.Article, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.RespondWithError(w, r, api.NewNotFoundError("Article not found"))
		return database.Article{}, false
	}
	article, err := h.queries.GetArticleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewNotFoundError("Article not found"))
			return database.Article{}, false
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load article"))
		return database.Article{}, false
	}
	return article, true
}

func articleSummary(a database.Article) map[string]any {
	return map[string]any{
		"id":                   a.ID,
		"title":                a.Title,
		"slug":                 a.Slug,
		"excerpt":              a.Excerpt,
		"author_name":          a.AuthorName,
		"category_id":          a.CategoryID,
		"tags":                 a.Tags,
		"status":               a.Status,
		"featured_image":       a.FeaturedImage,
		"view_count":           a.ViewCount,
		"like_count":           a.LikeCount,
		"comment_count":        a.CommentCount,
		"reading_time_minutes": a.ReadingTimeMinutes,
		"published_at":         a.PublishedAt,
		"created_at":           a.CreatedAt,
	}
}

func articleDetail(a database.Article) map[string]any {
	detail := articleSummary(a)
	detail["content"] = a.Content
	detail["author_id"] = a.AuthorID
	detail["seo_title"] = a.SEOTitle
	detail["seo_description"] = a.SEODescription
	detail["updated_at"] = a.UpdatedAt
	return detail
}

func categoryView(c database.CategoryWithCount) map[string]any {
	return map[string]any{
		"id":            c.ID,
		"name":          c.Name,
		"slug":          c.Slug,
		"description":   c.Description,
		"parent_id":     c.ParentID,
		"sort_order":    c.SortOrder,
		"is_active":     c.IsActive,
		"article_count": c.ArticleCount,
	}
}

// categoryTree nests categories one level under their parents.
func categoryTree(categories []database.CategoryWithCount) []map[string]any {
	children := make(map[uuid.UUID][]map[string]any)
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], categoryView(c))
		}
	}

	var roots []map[string]any
	for _, c := range categories {
		if c.ParentID == nil {
			node := categoryView(c)
			node["children"] = children[c.ID]
			roots = append(roots, node)
		}
	}
	return roots
}

func commentView(c database.Comment) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"article_id": c.ArticleID,
		"user_id":    c.UserID,
		"user_name":  c.UserName,
		"parent_id":  c.ParentID,
		"content":    c.Content,
		"status":     c.Status,
		"like_count": c.LikeCount,
		"created_at": c.CreatedAt,
	}
}

// nestComments groups replies under their top-level parents.
func nestComments(comments []database.Comment) []map[string]any {
	replies := make(map[uuid.UUID][]map[string]any)
	for _, c := range comments {
		if c.ParentID != nil {
			replies[*c.ParentID] = append(replies[*c.ParentID], commentView(c))
		}
	}

	var roots []map[string]any
	for _, c := range comments {
		if c.ParentID == nil {
			node := commentView(c)
			node["replies"] = replies[c.ID]
			roots = append(roots, node)
		}
	}
	return roots
}

func sortHitsByRelevance(hits []SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Relevance > hits[j].Relevance
	})
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
