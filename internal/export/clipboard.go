package export

import (
	"fmt"
	"strings"

	"github.com/vgreport/vgdraft/internal/report"
)

// BoxText is the clipboard payload for a single cell.
type BoxText struct {
	Text        string
	ExportReady bool
}

// BuildClipboardBox serializes one box as CRLF-normalized plain text. A box
// that is not export-ready yields the empty string.
func BuildClipboardBox(draft *report.ReportDraft, frame report.FrameID, section report.SectionID) BoxText {
	var c report.CommentDraft
	if draft != nil {
		c = draft.Comment(frame, section)
	}
	ready := IsExportReady(c)
	var rendered string
	if ready {
		rendered = strings.TrimSpace(c.Rendered)
	}
	return BoxText{Text: normalizeNewlinesToCRLF(rendered), ExportReady: ready}
}

// AllBoxes is the clipboard payload for a full report: every box under its
// heading, plus the headings that were left blank so the UI can warn.
type AllBoxes struct {
	Text    string
	Missing []string
}

// BuildClipboardAll concatenates all twelve boxes with a heading line per box.
// Boxes that are missing or not ready stay blank under their heading.
func BuildClipboardAll(draft *report.ReportDraft) AllBoxes {
	var parts []string
	var missing []string

	for _, frame := range report.Frames() {
		for _, section := range report.Sections() {
			box := BuildClipboardBox(draft, frame.ID, section.ID)
			heading := boxHeading(frame, section)

			parts = append(parts, heading)
			if !box.ExportReady || box.Text == "" {
				missing = append(missing, heading)
				parts = append(parts, "")
			} else {
				parts = append(parts, box.Text)
			}
			parts = append(parts, "")
		}
	}

	return AllBoxes{Text: strings.Join(parts, "\r\n"), Missing: missing}
}

// BuildPrintDocument assembles the print view: one block per frame with the
// frame label as a heading and each section underneath. Not-ready boxes print
// as blank sections, matching every other export surface.
func BuildPrintDocument(student report.Student, draft *report.ReportDraft) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s, %s\r\n", student.LastName, student.FirstName))
	if draft != nil {
		sb.WriteString(fmt.Sprintf("Reporting period: %s\r\n", draft.Period))
	}
	sb.WriteString("\r\n")

	for _, frame := range report.Frames() {
		sb.WriteString(frame.Label)
		sb.WriteString("\r\n")
		sb.WriteString(strings.Repeat("=", len(frame.Label)))
		sb.WriteString("\r\n")
		for _, section := range report.Sections() {
			box := BuildClipboardBox(draft, frame.ID, section.ID)
			sb.WriteString(section.Label)
			sb.WriteString("\r\n")
			sb.WriteString(box.Text)
			sb.WriteString("\r\n\r\n")
		}
	}

	return sb.String()
}

func boxHeading(frame report.Frame, section report.Section) string {
	return fmt.Sprintf("%s — %s", frame.Label, section.Label)
}
