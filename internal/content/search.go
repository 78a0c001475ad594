package content

import (
	"strings"

	"github.com/mathservice-vn/platform/app/internal/database"
)

// SearchHit is one scored search result.
type SearchHit struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Slug      string  `json:"slug"`
	Highlight string  `json:"highlight,omitempty"`
	Relevance float64 `json:"relevance"`
}

// ScoreArticle ranks an article against a query: title matches weigh
// more than content matches, exact title matches most of all.
func ScoreArticle(a database.Article, query string) float64 {
	q := strings.ToLower(query)
	title := strings.ToLower(a.Title)

	var score float64
	if title == q {
		score += 10
	}
	if strings.Contains(title, q) {
		score += 5
	}
	score += float64(strings.Count(strings.ToLower(a.Content), q))
	if score > 0 && a.Status == "published" {
		score += 1
	}
	return score
}

// Highlight wraps every occurrence of the query in <mark> tags,
// preserving the original casing. The snippet is trimmed around the
// first match.
func Highlight(text, query string) string {
	lower := strings.ToLower(text)
	q := strings.ToLower(query)

	first := strings.Index(lower, q)
	if first < 0 {
		if len(text) > 200 {
			return text[:200] + "..."
		}
		return text
	}

	// Snippet window around the first hit.
	start := first - 60
	if start < 0 {
		start = 0
	}
	end := first + len(q) + 140
	if end > len(text) {
		end = len(text)
	}
	snippet := text[start:end]
	lowerSnippet := lower[start:end]

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	for {
		i := strings.Index(lowerSnippet, q)
		if i < 0 {
			b.WriteString(snippet)
			break
		}
		b.WriteString(snippet[:i])
		b.WriteString("<mark>")
		b.WriteString(snippet[i : i+len(q)])
		b.WriteString("</mark>")
		snippet = snippet[i+len(q):]
		lowerSnippet = lowerSnippet[i+len(q):]
	}
	if end < len(text) {
		b.WriteString("...")
	}
	return b.String()
}
