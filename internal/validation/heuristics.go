// Package validation scores free text against length and structure
// thresholds before a comment is offered for export.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity grades an issue. Nothing here blocks an edit; severities only
// drive how prominently the UI surfaces the finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IssueCode identifies the heuristic that fired.
type IssueCode string

const (
	CodeTooShort        IssueCode = "too_short"
	CodeTooLong         IssueCode = "too_long"
	CodeTooManyBreaks   IssueCode = "too_many_line_breaks"
	CodeTooFewSentences IssueCode = "too_few_sentences"
)

// Issue is a single heuristic finding.
type Issue struct {
	Severity Severity  `json:"severity"`
	Code     IssueCode `json:"code"`
	Message  string    `json:"message"`
}

// Config holds the thresholds, typically loaded from app settings.
type Config struct {
	MinChars      int `json:"minChars"`
	MaxChars      int `json:"maxChars"`
	MinSentences  int `json:"minSentences"`
	MaxLineBreaks int `json:"maxLineBreaks"`
}

// DefaultConfig returns the board-neutral thresholds used when no setting is
// stored.
func DefaultConfig() Config {
	return Config{MinChars: 100, MaxChars: 600, MinSentences: 2, MaxLineBreaks: 2}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]+`)
	lineBreakRe  = regexp.MustCompile(`\r?\n`)
)

// CountSentences counts punctuation-terminated sentences, treating a trailing
// unterminated fragment as one sentence.
func CountSentences(text string) int {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0
	}

	normalized := whitespaceRe.ReplaceAllString(t, " ")
	count := len(sentenceRe.FindAllString(normalized, -1))

	last := normalized[len(normalized)-1]
	if last != '.' && last != '!' && last != '?' {
		count++
	}
	return count
}

// Analyze runs every heuristic over the text. Empty text yields no issues:
// an untouched box is not a problem, just not export-ready.
func Analyze(text string, cfg Config) []Issue {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil
	}

	var issues []Issue
	charCount := len([]rune(t))

	if charCount < cfg.MinChars {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeTooShort,
			Message:  fmt.Sprintf("Text is short (%d chars). Target >= %d.", charCount, cfg.MinChars),
		})
	}

	if charCount > cfg.MaxChars {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeTooLong,
			Message:  fmt.Sprintf("Text is long (%d chars). Target <= %d.", charCount, cfg.MaxChars),
		})
	}

	if breaks := len(lineBreakRe.FindAllString(t, -1)); breaks > cfg.MaxLineBreaks {
		issues = append(issues, Issue{
			Severity: SeverityInfo,
			Code:     CodeTooManyBreaks,
			Message:  fmt.Sprintf("Contains %d line breaks. Target <= %d.", breaks, cfg.MaxLineBreaks),
		})
	}

	if sentences := CountSentences(t); sentences > 0 && sentences < cfg.MinSentences {
		plural := "s"
		if sentences == 1 {
			plural = ""
		}
		issues = append(issues, Issue{
			Severity: SeverityInfo,
			Code:     CodeTooFewSentences,
			Message:  fmt.Sprintf("Only %d sentence%s. Target >= %d.", sentences, plural, cfg.MinSentences),
		})
	}

	return issues
}
