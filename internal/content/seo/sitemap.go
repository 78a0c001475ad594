package seo

import (
	"fmt"
	"strings"
	"time"
)

// SitemapArticle is the subset of an article the sitemap needs.
type SitemapArticle struct {
	Slug        string
	ViewCount   int64
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// SitemapCategory is the subset of a category the sitemap needs.
type SitemapCategory struct {
	Slug      string
	UpdatedAt time.Time
}

// ArticlePriority scores a published article for the sitemap. Popular
// articles rank up, stale articles rank down; the result stays inside
// [0.1, 0.9].
func ArticlePriority(a SitemapArticle, now time.Time) float64 {
	priority := 0.6
	switch {
	case a.ViewCount > 1000:
		priority += 0.2
	case a.ViewCount > 500:
		priority += 0.1
	}

	age := now.Sub(a.PublishedAt)
	switch {
	case age > 365*24*time.Hour:
		priority -= 0.1
	case age > 180*24*time.Hour:
		priority -= 0.05
	}

	if priority > 0.9 {
		priority = 0.9
	}
	if priority < 0.1 {
		priority = 0.1
	}
	return priority
}

// ArticleChangeFreq maps the article's age to a change frequency hint.
func ArticleChangeFreq(a SitemapArticle, now time.Time) string {
	age := now.Sub(a.UpdatedAt)
	switch {
	case age < 7*24*time.Hour:
		return "daily"
	case age < 30*24*time.Hour:
		return "weekly"
	default:
		return "monthly"
	}
}

// GenerateSitemap renders the sitemap XML: homepage, active categories
// and published articles.
func GenerateSitemap(baseURL string, categories []SitemapCategory, articles []SitemapArticle, now time.Time) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")

	writeURL(&b, baseURL+"/", now, "daily", 1.0)
	for _, c := range categories {
		writeURL(&b, baseURL+"/categories/"+c.Slug, c.UpdatedAt, "weekly", 0.8)
	}
	for _, a := range articles {
		writeURL(&b, baseURL+"/articles/"+a.Slug, a.UpdatedAt, ArticleChangeFreq(a, now), ArticlePriority(a, now))
	}

	b.WriteString("</urlset>\n")
	return b.String()
}

func writeURL(b *strings.Builder, loc string, lastmod time.Time, changefreq string, priority float64) {
	fmt.Fprintf(b, "  <url>\n    <loc>%s</loc>\n    <lastmod>%s</lastmod>\n    <changefreq>%s</changefreq>\n    <priority>%.1f</priority>\n  </url>\n",
		loc, lastmod.Format("2006-01-02"), changefreq, priority)
}
