package content

import (
	"strings"
	"testing"

	"github.com/mathservice-vn/platform/app/internal/database"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Giải phương trình bậc hai", "giải-phương-trình-bậc-hai"},
		{"Pythagoras' Theorem, Explained.", "pythagoras-theorem-explained"},
		{"  Multiple   Spaces  ", "multiple-spaces"},
		{"UPPERCASE Title", "uppercase-title"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCategorySlug(t *testing.T) {
	if got := CategorySlug("Algebra & Geometry"); got != "algebra-and-geometry" {
		t.Errorf("CategorySlug = %q, want algebra-and-geometry", got)
	}
}

func TestExcerpt(t *testing.T) {
	short := "A short article."
	if got := Excerpt(short); got != short {
		t.Errorf("short content should pass through, got %q", got)
	}

	long := strings.Repeat("a", 200)
	got := Excerpt(long)
	if len(got) != 153 || !strings.HasSuffix(got, "...") {
		t.Errorf("Excerpt length = %d, want 150 chars plus ellipsis", len(got))
	}
}

func TestReadingTime(t *testing.T) {
	if got := ReadingTime("just a few words"); got != 1 {
		t.Errorf("ReadingTime short = %d, want 1", got)
	}
	if got := ReadingTime(strings.Repeat("word ", 450)); got != 2 {
		t.Errorf("ReadingTime 450 words = %d, want 2", got)
	}
}

func TestValidateContent(t *testing.T) {
	valid := strings.Repeat("Mathematics is the language of the universe. ", 5)

	tests := []struct {
		name      string
		content   string
		wantValid bool
		wantError string
	}{
		{"valid", valid, true, ""},
		{"empty", "", false, "Content cannot be empty"},
		{"too short", "Too short.", false, "Content must be at least 50 characters long"},
		{"script tag", valid + "<script>alert(1)</script>", false, "Dangerous HTML tag detected: <script>"},
		{"iframe tag", valid + "<iframe src='x'>", false, "Dangerous HTML tag detected: <iframe>"},
		{"spam", valid + " buy now! click here for free money!", false, "Content appears to be spam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateContent(tt.content)
			if result.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, errors = %v", result.IsValid, result.Errors)
			}
			if tt.wantError != "" {
				found := false
				for _, e := range result.Errors {
					if e == tt.wantError {
						found = true
					}
				}
				if !found {
					t.Errorf("errors = %v, want %q", result.Errors, tt.wantError)
				}
			}
		})
	}
}

func TestValidateContentMetadata(t *testing.T) {
	content := strings.Repeat("word ", 400)
	result := ValidateContent(content)
	if result.Metadata.WordCount != 400 {
		t.Errorf("WordCount = %d, want 400", result.Metadata.WordCount)
	}
	if result.Metadata.ReadingTimeMinutes != 2 {
		t.Errorf("ReadingTimeMinutes = %d, want 2", result.Metadata.ReadingTimeMinutes)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		wants []string
	}{
		{"script block", "before <script>alert(1)</script> after", []string{"before", "after"}},
		{"javascript url", `<a href="javascript:alert(1)">x</a>`, []string{`<a href="alert(1)">x</a>`}},
		{"onclick handler", `<div onclick="evil()">x</div>`, []string{`<div "evil()">x</div>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if strings.Contains(strings.ToLower(got), "script") ||
				strings.Contains(strings.ToLower(got), "javascript:") ||
				strings.Contains(strings.ToLower(got), "onclick=") {
				t.Errorf("Sanitize(%q) = %q still contains dangerous content", tt.in, got)
			}
			for _, want := range tt.wants {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, want substring %q", tt.in, got, want)
				}
			}
		})
	}
}

func TestHighlight(t *testing.T) {
	got := Highlight("Learn about Quadratic equations today", "quadratic")
	if !strings.Contains(got, "<mark>Quadratic</mark>") {
		t.Errorf("Highlight = %q, want marked match with original casing", got)
	}

	noMatch := Highlight("nothing relevant here", "quadratic")
	if strings.Contains(noMatch, "<mark>") {
		t.Errorf("Highlight without match = %q", noMatch)
	}
}

func TestScoreArticle(t *testing.T) {
	article := database.Article{
		Title:   "Quadratic Equations",
		Content: "A quadratic equation is a polynomial equation. Quadratic formulas solve it.",
		Status:  "published",
	}

	exact := ScoreArticle(article, "quadratic equations")
	partial := ScoreArticle(article, "polynomial")
	none := ScoreArticle(article, "geometry")

	if exact <= partial {
		t.Errorf("exact title match (%v) should outscore content match (%v)", exact, partial)
	}
	if none != 0 {
		t.Errorf("no match should score 0, got %v", none)
	}
}
