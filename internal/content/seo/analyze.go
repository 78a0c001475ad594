// Package seo scores articles for search visibility and generates the
// structured data (JSON-LD, sitemap) the content service serves.
package seo

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Report is the full SEO analysis of one article.
type Report struct {
	OverallScore    int            `json:"overall_score"`
	Grade           string         `json:"grade"`
	TitleScore      int            `json:"title_score"`
	ContentScore    int            `json:"content_score"`
	MetaScore       int            `json:"meta_score"`
	Readability     int            `json:"readability_score"`
	Issues          []string       `json:"issues,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Details         map[string]any `json:"details"`
}

// Input is what the analyzer needs from an article.
type Input struct {
	Title           string
	Content         string
	MetaDescription string
	FocusKeyword    string
}

var (
	h1Re       = regexp.MustCompile(`(?i)<h1[^>]*>`)
	h2Re       = regexp.MustCompile(`(?i)<h2[^>]*>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

// Analyze scores the article's title, content, meta description and
// readability, then grades the rounded mean.
func Analyze(in Input) Report {
	r := Report{Details: map[string]any{}}

	r.TitleScore = scoreTitle(in, &r)
	r.ContentScore = scoreContent(in, &r)
	r.MetaScore = scoreMeta(in, &r)
	r.Readability = scoreReadability(in, &r)

	mean := float64(r.TitleScore+r.ContentScore+r.MetaScore+r.Readability) / 4
	r.OverallScore = int(math.Round(mean))
	r.Grade = grade(r.OverallScore)
	return r
}

func grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func scoreTitle(in Input, r *Report) int {
	length := len(in.Title)
	var score int
	switch {
	case length >= 30 && length <= 60:
		score = 100
	case length >= 10 && length < 30:
		score = 70
		r.Recommendations = append(r.Recommendations, "Title could be longer (30-60 characters is ideal)")
	case length > 60:
		score = 60
		r.Issues = append(r.Issues, "Title is too long (over 60 characters)")
	default:
		score = 30
		r.Issues = append(r.Issues, "Title is too short (under 10 characters)")
	}

	if in.FocusKeyword != "" && strings.Contains(strings.ToLower(in.Title), strings.ToLower(in.FocusKeyword)) {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	r.Details["title_length"] = length
	return score
}

func scoreContent(in Input, r *Report) int {
	text := tagRe.ReplaceAllString(in.Content, " ")
	words := strings.Fields(text)
	wordCount := len(words)

	var score int
	switch {
	case wordCount >= 300:
		score = 100
	case wordCount >= 150:
		score = 70
		r.Recommendations = append(r.Recommendations, "Content could be longer (300+ words is ideal)")
	default:
		score = 40
		r.Issues = append(r.Issues, "Content is too short (under 150 words)")
	}

	if in.FocusKeyword != "" && wordCount > 0 {
		occurrences := strings.Count(strings.ToLower(text), strings.ToLower(in.FocusKeyword))
		density := float64(occurrences) / float64(wordCount) * 100
		r.Details["keyword_density"] = math.Round(density*100) / 100
		switch {
		case density >= 1 && density <= 3:
			score += 10
		case density > 3:
			r.Warnings = append(r.Warnings, fmt.Sprintf("Keyword density is too high (%.1f%%)", density))
		default:
			r.Recommendations = append(r.Recommendations, "Focus keyword does not appear enough in the content")
		}
	}

	switch h1Count := len(h1Re.FindAllString(in.Content, -1)); h1Count {
	case 1:
		score += 10
	case 0:
		r.Issues = append(r.Issues, "Missing H1 heading")
	default:
		r.Issues = append(r.Issues, "Multiple H1 headings found")
	}
	if h2Re.MatchString(in.Content) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	r.Details["word_count"] = wordCount
	return score
}

func scoreMeta(in Input, r *Report) int {
	length := len(in.MetaDescription)
	var score int
	switch {
	case length >= 120 && length <= 160:
		score = 100
	case length >= 80 && length < 120:
		score = 70
		r.Recommendations = append(r.Recommendations, "Meta description could be longer (120-160 characters)")
	case length > 160:
		score = 60
		r.Issues = append(r.Issues, "Meta description is too long (over 160 characters)")
	default:
		score = 40
		r.Issues = append(r.Issues, "Meta description is too short (under 80 characters)")
	}

	if in.FocusKeyword != "" && strings.Contains(strings.ToLower(in.MetaDescription), strings.ToLower(in.FocusKeyword)) {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	r.Details["meta_description_length"] = length
	return score
}

func scoreReadability(in Input, r *Report) int {
	text := tagRe.ReplaceAllString(in.Content, " ")
	sentences := 0
	for _, s := range sentenceRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	words := len(strings.Fields(text))
	if sentences == 0 {
		return 60
	}

	avg := float64(words) / float64(sentences)
	r.Details["avg_words_per_sentence"] = math.Round(avg*10) / 10
	switch {
	case avg <= 20:
		return 100
	case avg <= 25:
		return 80
	default:
		r.Warnings = append(r.Warnings, "Sentences are long; aim for 20 words or fewer on average")
		return 60
	}
}
