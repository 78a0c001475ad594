package seo

import (
	"strings"
	"testing"
	"time"
)

func goodInput() Input {
	sentence := "Quadratic equations appear everywhere in mathematics and physics. "
	return Input{
		Title:           "How to Solve Quadratic Equations Easily",
		Content:         "<h1>Quadratic Equations</h1><h2>The Formula</h2>" + strings.Repeat(sentence, 35),
		MetaDescription: strings.Repeat("Learn to solve quadratic equations step by step. ", 3)[:140],
		FocusKeyword:    "quadratic equations",
	}
}

func TestAnalyzeGoodArticle(t *testing.T) {
	report := Analyze(goodInput())

	if report.TitleScore != 100 {
		t.Errorf("TitleScore = %d, want 100", report.TitleScore)
	}
	if report.ContentScore != 100 {
		t.Errorf("ContentScore = %d, want 100", report.ContentScore)
	}
	if report.Grade != "A" {
		t.Errorf("Grade = %q (overall %d), want A", report.Grade, report.OverallScore)
	}
}

func TestAnalyzeShortTitle(t *testing.T) {
	in := goodInput()
	in.Title = "Math"

	report := Analyze(in)
	if report.TitleScore != 30 {
		t.Errorf("TitleScore = %d, want 30", report.TitleScore)
	}
	found := false
	for _, issue := range report.Issues {
		if strings.Contains(issue, "Title is too short") {
			found = true
		}
	}
	if !found {
		t.Errorf("Issues = %v, want short-title issue", report.Issues)
	}
}

func TestAnalyzeHeadingIssues(t *testing.T) {
	in := goodInput()
	in.Content = strings.Repeat("Quadratic equations are useful in many fields of study. ", 40)

	report := Analyze(in)
	found := false
	for _, issue := range report.Issues {
		if issue == "Missing H1 heading" {
			found = true
		}
	}
	if !found {
		t.Errorf("Issues = %v, want missing H1", report.Issues)
	}

	in.Content = "<h1>a</h1><h1>b</h1>" + in.Content
	report = Analyze(in)
	found = false
	for _, issue := range report.Issues {
		if issue == "Multiple H1 headings found" {
			found = true
		}
	}
	if !found {
		t.Errorf("Issues = %v, want multiple H1", report.Issues)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{95, "A"}, {90, "A"}, {85, "B"}, {75, "C"}, {65, "D"}, {50, "F"},
	}
	for _, tt := range tests {
		if got := grade(tt.score); got != tt.want {
			t.Errorf("grade(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestArticleSchema(t *testing.T) {
	published := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	schema := ArticleSchema(ArticleSchemaInput{
		Title:           "Solving Cubic Equations",
		Slug:            "solving-cubic-equations",
		MetaDescription: "A walkthrough of cubic equation solving.",
		AuthorName:      "Nguyen Van A",
		Keywords:        []string{"cubic", "algebra"},
		WordCount:       450,
		PublishedAt:     &published,
		UpdatedAt:       published,
	})

	if schema["@type"] != "Article" {
		t.Errorf("@type = %v", schema["@type"])
	}
	publisher := schema["publisher"].(map[string]any)
	if publisher["name"] != "Math Service Website" {
		t.Errorf("publisher name = %v", publisher["name"])
	}
	page := schema["mainEntityOfPage"].(map[string]any)
	if page["@id"] != "https://mathservice.com/articles/solving-cubic-equations" {
		t.Errorf("mainEntityOfPage @id = %v", page["@id"])
	}
	if schema["keywords"] != "cubic, algebra" {
		t.Errorf("keywords = %v", schema["keywords"])
	}
	if schema["timeRequired"] != "PT2M" {
		t.Errorf("timeRequired = %v, want PT2M for 450 words", schema["timeRequired"])
	}
}

func TestBreadcrumbSchema(t *testing.T) {
	schema := BreadcrumbSchema([]Breadcrumb{
		{Name: "Home", URL: "https://mathservice.com/"},
		{Name: "Algebra", URL: "https://mathservice.com/categories/algebra"},
	})

	items := schema["itemListElement"].([]map[string]any)
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0]["position"] != 1 || items[1]["position"] != 2 {
		t.Errorf("positions = %v, %v, want 1-based", items[0]["position"], items[1]["position"])
	}
}

func TestArticlePriority(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		article SitemapArticle
		want    float64
	}{
		{"fresh ordinary", SitemapArticle{PublishedAt: now.AddDate(0, 0, -10)}, 0.6},
		{"popular", SitemapArticle{ViewCount: 1500, PublishedAt: now.AddDate(0, 0, -10)}, 0.8},
		{"somewhat popular", SitemapArticle{ViewCount: 600, PublishedAt: now.AddDate(0, 0, -10)}, 0.7},
		{"old", SitemapArticle{PublishedAt: now.AddDate(-2, 0, 0)}, 0.5},
		{"popular but aging", SitemapArticle{ViewCount: 1500, PublishedAt: now.AddDate(0, -7, 0)}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArticlePriority(tt.article, now)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("priority = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateSitemap(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	xml := GenerateSitemap("https://mathservice.com",
		[]SitemapCategory{{Slug: "algebra", UpdatedAt: now}},
		[]SitemapArticle{{Slug: "intro", ViewCount: 10, PublishedAt: now.AddDate(0, 0, -3), UpdatedAt: now.AddDate(0, 0, -3)}},
		now)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		"<loc>https://mathservice.com/</loc>",
		"<priority>1.0</priority>",
		"<loc>https://mathservice.com/categories/algebra</loc>",
		"<loc>https://mathservice.com/articles/intro</loc>",
		"<changefreq>daily</changefreq>",
		"<lastmod>2025-05-29</lastmod>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("sitemap missing %q\n%s", want, xml)
		}
	}
}

func TestValidateURL(t *testing.T) {
	clean := ValidateURL("https://mathservice.com/articles/solving-equations")
	if clean.Score != 100 {
		t.Errorf("clean URL score = %d, issues %v", clean.Score, clean.Issues)
	}

	query := ValidateURL("https://mathservice.com/articles?id=5")
	if query.Score != 85 {
		t.Errorf("query URL score = %d, want 85", query.Score)
	}

	upper := ValidateURL("https://mathservice.com/Articles/Math")
	if upper.Score != 90 {
		t.Errorf("uppercase URL score = %d, want 90", upper.Score)
	}

	double := ValidateURL("https://mathservice.com/articles/a--b")
	if double.Score != 90 {
		t.Errorf("double hyphen score = %d, want 90", double.Score)
	}
}

func TestValidateMetaTags(t *testing.T) {
	full := ValidateMetaTags(MetaTags{
		Title:       "How to Solve Quadratic Equations Easily",
		Description: strings.Repeat("Learn to solve quadratic equations step by step. ", 3)[:140],
		Viewport:    "width=device-width",
		Robots:      "index,follow",
		OpenGraph: map[string]string{
			"og:title": "t", "og:description": "d", "og:image": "i", "og:url": "u",
		},
		Twitter: map[string]string{"twitter:card": "summary", "twitter:title": "t"},
	})
	if full.Score != 100 {
		t.Errorf("full tags score = %d, want 100 (%v %v)", full.Score, full.Errors, full.Warnings)
	}

	empty := ValidateMetaTags(MetaTags{})
	if empty.Score != 100-30-30-5-5-10-5 {
		t.Errorf("empty tags score = %d", empty.Score)
	}
	if len(empty.Errors) != 2 {
		t.Errorf("empty tags errors = %v", empty.Errors)
	}
}

func TestValidateMetadata(t *testing.T) {
	good := ValidateMetadata(Metadata{
		Title:           "How to Solve Quadratic Equations Easily",
		Slug:            "how-to-solve-quadratic-equations-easily",
		MetaDescription: strings.Repeat("Learn to solve quadratic equations step by step. ", 3)[:140],
	})
	if good.Score != 100 || good.Grade != "A" {
		t.Errorf("good metadata = %d/%s", good.Score, good.Grade)
	}

	bad := ValidateMetadata(Metadata{Slug: "Invalid Slug!"})
	// missing title, bad slug charset: 2 errors; short meta description: 1 warning
	if bad.Score != 100-40-10 {
		t.Errorf("bad metadata score = %d (%v %v)", bad.Score, bad.Errors, bad.Warnings)
	}
	if bad.Grade != "C" {
		t.Errorf("bad metadata grade = %q", bad.Grade)
	}
}
