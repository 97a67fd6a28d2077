package validation

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{MinChars: 100, MaxChars: 600, MinSentences: 2, MaxLineBreaks: 2}
}

func hasCode(issues []Issue, code IssueCode) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestCountSentences(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{" ", 0},
		{"", 0},
		{"A. B! C?", 3},
		{"A. trailing", 2},
		{"No terminator", 1},
		{"One sentence.", 1},
	}
	for _, tc := range cases {
		if got := CountSentences(tc.text); got != tc.want {
			t.Fatalf("CountSentences(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestAnalyzeEmptyTextHasNoIssues(t *testing.T) {
	if issues := Analyze("   ", testConfig()); len(issues) != 0 {
		t.Fatalf("expected no issues for blank text, got %v", issues)
	}
}

func TestAnalyzeTooShort(t *testing.T) {
	cfg := testConfig()
	cfg.MinChars = 50
	issues := Analyze("Short sentence. Another.", cfg)
	if !hasCode(issues, CodeTooShort) {
		t.Fatalf("expected too_short issue, got %v", issues)
	}
}

func TestAnalyzeTooLong(t *testing.T) {
	cfg := testConfig()
	cfg.MaxChars = 20
	issues := Analyze(strings.Repeat("x", 21), cfg)
	if !hasCode(issues, CodeTooLong) {
		t.Fatalf("expected too_long issue, got %v", issues)
	}
}

func TestAnalyzeTooFewSentences(t *testing.T) {
	cfg := testConfig()
	cfg.MinChars = 0
	issues := Analyze("One.", cfg)
	if !hasCode(issues, CodeTooFewSentences) {
		t.Fatalf("expected too_few_sentences issue, got %v", issues)
	}
}

func TestAnalyzeTooManyLineBreaks(t *testing.T) {
	cfg := testConfig()
	cfg.MinChars = 0
	cfg.MaxLineBreaks = 1
	issues := Analyze("a\nb\nc. Another sentence here.", cfg)
	if !hasCode(issues, CodeTooManyBreaks) {
		t.Fatalf("expected too_many_line_breaks issue, got %v", issues)
	}
}

func TestAnalyzeCleanText(t *testing.T) {
	text := strings.Repeat("The student works well with peers. ", 5)
	if issues := Analyze(text, testConfig()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}
