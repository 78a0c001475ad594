package seo

import (
	"fmt"
	"strings"
	"time"
)

// ArticleSchemaInput carries the article fields used in JSON-LD output.
type ArticleSchemaInput struct {
	Title           string
	Slug            string
	MetaDescription string
	AuthorName      string
	Keywords        []string
	WordCount       int
	FeaturedImage   string
	PublishedAt     *time.Time
	UpdatedAt       time.Time
}

// ArticleSchema builds a Schema.org Article object ready for JSON-LD
// serialization.
func ArticleSchema(in ArticleSchemaInput) map[string]any {
	readingMinutes := in.WordCount / 200
	if readingMinutes < 1 {
		readingMinutes = 1
	}

	schema := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Article",
		"headline":    in.Title,
		"description": in.MetaDescription,
		"author": map[string]any{
			"@type": "Person",
			"name":  in.AuthorName,
		},
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  "Math Service Website",
		},
		"mainEntityOfPage": map[string]any{
			"@type": "WebPage",
			"@id":   "https://mathservice.com/articles/" + in.Slug,
		},
		"keywords":     strings.Join(in.Keywords, ", "),
		"wordCount":    in.WordCount,
		"timeRequired": fmt.Sprintf("PT%dM", readingMinutes),
		"dateModified": in.UpdatedAt.Format(time.RFC3339),
	}
	if in.PublishedAt != nil {
		schema["datePublished"] = in.PublishedAt.Format(time.RFC3339)
	}
	if in.FeaturedImage != "" {
		schema["image"] = in.FeaturedImage
	}
	return schema
}

// Breadcrumb is one step in a breadcrumb trail.
type Breadcrumb struct {
	Name string
	URL  string
}

// BreadcrumbSchema builds a Schema.org BreadcrumbList with 1-based
// positions.
func BreadcrumbSchema(crumbs []Breadcrumb) map[string]any {
	items := make([]map[string]any, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     c.URL,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}
