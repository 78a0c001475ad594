package content

import (
	"fmt"
	"regexp"
	"strings"
)

// dangerousTags are HTML elements that are rejected outright.
var dangerousTags = []string{"script", "iframe", "object", "embed", "form"}

// spamPhrases trip the spam detector when three or more appear.
var spamPhrases = []string{"buy now", "click here", "free money", "guaranteed"}

var scriptBlockRe = regexp.MustCompile(`(?is)<script.*?</script>`)

// ValidationResult is the outcome of validating article content.
type ValidationResult struct {
	IsValid  bool            `json:"is_valid"`
	Errors   []string        `json:"errors,omitempty"`
	Metadata ContentMetadata `json:"metadata"`
}

// ContentMetadata describes the validated content.
type ContentMetadata struct {
	WordCount          int   `json:"word_count"`
	CharacterCount     int   `json:"character_count"`
	ReadingTimeMinutes int32 `json:"reading_time_minutes"`
}

// ValidateContent checks article content for length, dangerous HTML and
// spam patterns.
func ValidateContent(content string) ValidationResult {
	result := ValidationResult{
		Metadata: ContentMetadata{
			WordCount:          WordCount(content),
			CharacterCount:     len(content),
			ReadingTimeMinutes: ReadingTime(content),
		},
	}

	trimmed := strings.TrimSpace(content)
	switch {
	case trimmed == "":
		result.Errors = append(result.Errors, "Content cannot be empty")
	case len(trimmed) < 50:
		result.Errors = append(result.Errors, "Content must be at least 50 characters long")
	case len(trimmed) > 50000:
		result.Errors = append(result.Errors, "Content must be at most 50000 characters long")
	}

	lower := strings.ToLower(content)
	for _, tag := range dangerousTags {
		if strings.Contains(lower, "<"+tag) {
			result.Errors = append(result.Errors, fmt.Sprintf("Dangerous HTML tag detected: <%s>", tag))
		}
	}

	spamHits := 0
	for _, phrase := range spamPhrases {
		spamHits += strings.Count(lower, phrase)
	}
	if spamHits >= 3 {
		result.Errors = append(result.Errors, "Content appears to be spam")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// Sanitize removes script blocks and neutralizes inline handlers and
// javascript: URLs. It is applied to content before storage.
func Sanitize(content string) string {
	s := scriptBlockRe.ReplaceAllString(content, "")
	for _, needle := range []string{"javascript:", "onload=", "onclick="} {
		s = removeFold(s, needle)
	}
	return s
}

// removeFold strips every case-insensitive occurrence of needle.
func removeFold(s, needle string) string {
	var b strings.Builder
	lower := strings.ToLower(s)
	needle = strings.ToLower(needle)
	for {
		i := strings.Index(lower, needle)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		s = s[i+len(needle):]
		lower = lower[i+len(needle):]
	}
}
