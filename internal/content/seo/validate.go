package seo

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationReport is the score-and-findings shape shared by the URL,
// meta tags and metadata validators.
type ValidationReport struct {
	Score           int      `json:"score"`
	Grade           string   `json:"grade,omitempty"`
	Issues          []string `json:"issues,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Errors          []string `json:"errors,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

var urlStopWords = []string{"a", "an", "the", "and", "or", "but", "of", "in", "on", "at", "to", "for"}

// ValidateURL scores a URL path for SEO friendliness.
func ValidateURL(rawURL string) ValidationReport {
	r := ValidationReport{Score: 100}

	switch {
	case len(rawURL) > 100:
		r.Score -= 20
		r.Issues = append(r.Issues, "URL is too long (over 100 characters)")
	case len(rawURL) > 75:
		r.Score -= 5
		r.Warnings = append(r.Warnings, "URL is getting long (over 75 characters)")
	}

	if strings.ContainsAny(rawURL, "?&=%#") {
		r.Score -= 15
		r.Issues = append(r.Issues, "URL contains query characters")
	}
	if rawURL != strings.ToLower(rawURL) {
		r.Score -= 10
		r.Recommendations = append(r.Recommendations, "Use lowercase characters only")
	}
	if strings.Contains(rawURL, "_") {
		r.Score -= 5
		r.Recommendations = append(r.Recommendations, "Use hyphens instead of underscores")
	}
	if strings.Contains(rawURL, "--") {
		r.Score -= 10
		r.Issues = append(r.Issues, "URL contains consecutive hyphens")
	}
	if strings.HasSuffix(rawURL, "/") && rawURL != "/" {
		r.Recommendations = append(r.Recommendations, "Avoid trailing slashes")
	}

	path := strings.TrimPrefix(rawURL, "https://")
	path = strings.TrimPrefix(path, "http://")
	segments := 0
	for _, seg := range strings.Split(path, "/")[1:] {
		if seg != "" {
			segments++
		}
	}
	if segments > 5 {
		r.Score -= 10
		r.Issues = append(r.Issues, "URL has too many path segments")
	}

	stopWords := 0
	for _, word := range regexp.MustCompile(`[-/_]`).Split(strings.ToLower(path), -1) {
		for _, stop := range urlStopWords {
			if word == stop {
				stopWords++
			}
		}
	}
	if stopWords > 2 {
		r.Score -= 5
		r.Recommendations = append(r.Recommendations, "Remove stop words from the URL")
	}

	if r.Score < 0 {
		r.Score = 0
	}
	return r
}

// MetaTags is the page-level tag set checked by ValidateMetaTags.
type MetaTags struct {
	Title       string
	Description string
	Viewport    string
	Robots      string
	OpenGraph   map[string]string
	Twitter     map[string]string
}

var requiredOGTags = []string{"og:title", "og:description", "og:image", "og:url"}
var requiredTwitterTags = []string{"twitter:card", "twitter:title"}

// ValidateMetaTags scores a page's meta tag completeness.
func ValidateMetaTags(tags MetaTags) ValidationReport {
	r := ValidationReport{Score: 100}

	if tags.Title == "" {
		r.Score -= 30
		r.Errors = append(r.Errors, "Title tag is required")
	} else if len(tags.Title) < 30 || len(tags.Title) > 60 {
		r.Score -= 10
		r.Warnings = append(r.Warnings, "Title should be 30-60 characters")
	}

	if tags.Description == "" {
		r.Score -= 30
		r.Errors = append(r.Errors, "Meta description is required")
	} else if len(tags.Description) < 120 || len(tags.Description) > 160 {
		r.Score -= 10
		r.Warnings = append(r.Warnings, "Meta description should be 120-160 characters")
	}

	if tags.Viewport == "" {
		r.Score -= 5
		r.Warnings = append(r.Warnings, "Viewport meta tag is missing")
	}
	if tags.Robots == "" {
		r.Score -= 5
		r.Warnings = append(r.Warnings, "Robots meta tag is missing")
	}

	missingOG := 0
	for _, tag := range requiredOGTags {
		if tags.OpenGraph[tag] == "" {
			missingOG++
		}
	}
	if missingOG > 2 {
		r.Score -= 10
		r.Warnings = append(r.Warnings, "Open Graph tags are incomplete")
	}

	missingTwitter := 0
	for _, tag := range requiredTwitterTags {
		if tags.Twitter[tag] == "" {
			missingTwitter++
		}
	}
	if missingTwitter > 1 {
		r.Score -= 5
		r.Warnings = append(r.Warnings, "Twitter card tags are incomplete")
	}

	if r.Score < 0 {
		r.Score = 0
	}
	return r
}

// Metadata is the article-level SEO metadata checked before save.
type Metadata struct {
	Title           string
	Slug            string
	MetaDescription string
}

var slugRe = regexp.MustCompile(`^[a-z0-9\-_]+$`)

// ValidateMetadata scores article SEO metadata: errors cost 20 points,
// warnings 10, and the grade is coarser than the analyzer's.
func ValidateMetadata(m Metadata) ValidationReport {
	r := ValidationReport{Score: 100}

	if m.Title == "" {
		r.Errors = append(r.Errors, "Title is required")
	}
	if m.Slug == "" {
		r.Errors = append(r.Errors, "Slug is required")
	} else {
		if !slugRe.MatchString(m.Slug) {
			r.Errors = append(r.Errors, "Slug may only contain lowercase letters, digits, hyphens and underscores")
		}
		if len(m.Slug) > 100 {
			r.Errors = append(r.Errors, "Slug must be at most 100 characters")
		}
	}

	if m.Title != "" && (len(m.Title) < 10 || len(m.Title) > 60) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Title length %d is outside the 10-60 range", len(m.Title)))
	}
	if len(m.MetaDescription) < 120 || len(m.MetaDescription) > 160 {
		r.Warnings = append(r.Warnings, "Meta description should be 120-160 characters")
	}

	r.Score -= 20 * len(r.Errors)
	r.Score -= 10 * len(r.Warnings)
	if r.Score < 0 {
		r.Score = 0
	}

	switch {
	case r.Score >= 90:
		r.Grade = "A"
	case r.Score >= 70:
		r.Grade = "B"
	case r.Score >= 50:
		r.Grade = "C"
	default:
		r.Grade = "D"
	}
	return r
}
