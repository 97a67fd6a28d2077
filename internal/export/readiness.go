// Package export decides which comments may leave the application and
// serializes them deterministically for every export surface.
package export

import (
	"strings"

	"github.com/vgreport/vgdraft/internal/report"
)

// IsExportReady is the single gate consulted by every export path. A comment
// that fails it always serializes as an empty cell, never as its raw
// unapproved text.
func IsExportReady(c report.CommentDraft) bool {
	if strings.TrimSpace(c.Rendered) == "" {
		return false
	}
	if c.Validation != nil && !c.Validation.Valid {
		return false
	}

	status := c.Status
	if status == "" {
		author := c.Author
		if author == "" {
			author = report.RoleTeacher
		}
		status = report.DefaultStatusFor(author)
	}
	return status == report.StatusApproved
}

// BoxCounts reports how many of a student's twelve boxes are export-ready.
func BoxCounts(draft *report.ReportDraft) (ready, total int) {
	total = report.BoxCount()
	if draft == nil {
		return 0, total
	}
	for _, frame := range report.Frames() {
		for _, section := range report.Sections() {
			if IsExportReady(draft.Comment(frame.ID, section.ID)) {
				ready++
			}
		}
	}
	return ready, total
}

// NeedsReview reports whether any cell holds an ECE-authored comment that has
// not been approved yet.
func NeedsReview(draft *report.ReportDraft) bool {
	if draft == nil {
		return false
	}
	for _, frame := range report.Frames() {
		for _, section := range report.Sections() {
			c := draft.Comment(frame.ID, section.ID)
			if c.IsEmpty() {
				continue
			}
			author := c.Author
			if author == "" {
				author = report.RoleTeacher
			}
			status := c.Status
			if status == "" {
				status = report.StatusDraft
			}
			if author == report.RoleECE && status != report.StatusApproved {
				return true
			}
		}
	}
	return false
}
