// Package content implements the content service: articles, categories,
// tags, comments, search and the SEO tooling that hangs off them.
package content

import (
	"strings"
	"unicode/utf8"
)

// Slugify derives an article slug from its title: lowercase, spaces to
// hyphens, apostrophes/commas/periods stripped.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), "-")
}

// CategorySlug is like Slugify but spells out ampersands.
func CategorySlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	return strings.Join(strings.Fields(s), "-")
}

// Excerpt returns the article excerpt: the full content when short,
// otherwise the first 150 characters with an ellipsis.
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= 150 {
		return content
	}
	return string([]rune(content)[:150]) + "..."
}

// MetaDescription defaults to the first 160 characters of the content.
func MetaDescription(content string) string {
	if utf8.RuneCountInString(content) <= 160 {
		return content
	}
	return string([]rune(content)[:160]) + "…"
}

// WordCount counts whitespace-separated words.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// ReadingTime estimates minutes at 200 words per minute, minimum 1.
func ReadingTime(content string) int32 {
	minutes := WordCount(content) / 200
	if minutes < 1 {
		return 1
	}
	return int32(minutes)
}
