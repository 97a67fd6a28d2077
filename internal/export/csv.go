package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vgreport/vgdraft/internal/report"
)

// utf8BOM prefixes every CSV so spreadsheet tools pick up the encoding.
const utf8BOM = "\ufeff"

// normalizeNewlinesToCRLF rewrites any newline convention inside a field to
// CRLF, the only line break the board import tool accepts.
func normalizeNewlinesToCRLF(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ReplaceAll(text, "\n", "\r\n")
}

// quoteAlways wraps a field in quotes unconditionally, doubling internal
// quotes per RFC4180. encoding/csv quotes only when it must, which the board
// importer rejects, so the writer is spelled out here.
func quoteAlways(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// CSVHeader returns the fixed column order: four metadata columns followed by
// the twelve box columns in frame-major order.
func CSVHeader() []string {
	header := []string{"student_local_id", "student_last_name", "student_first_name", "report_period_id"}
	for _, frame := range report.Frames() {
		for _, section := range report.Sections() {
			header = append(header, fmt.Sprintf("%s_%s", frame.Slug, section.Slug))
		}
	}
	return header
}

// boxValues returns the twelve cell values for a student in header order.
// Cells that are not export-ready render as empty strings.
func boxValues(draft *report.ReportDraft) []string {
	values := make([]string, 0, report.BoxCount())
	for _, frame := range report.Frames() {
		for _, section := range report.Sections() {
			var rendered string
			if draft != nil {
				c := draft.Comment(frame.ID, section.ID)
				if IsExportReady(c) {
					rendered = strings.TrimSpace(c.Rendered)
				}
			}
			values = append(values, normalizeNewlinesToCRLF(rendered))
		}
	}
	return values
}

// sortStudents orders rows ascending by last name, first name, then id,
// case-insensitively, regardless of roster insertion order.
func sortStudents(students []report.Student) []report.Student {
	sorted := append([]report.Student(nil), students...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
			return c < 0
		}
		if c := strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return sorted
}

// BuildCSV produces the whole-roster 12-box CSV: BOM prefix, CRLF record
// terminators, every field quoted.
func BuildCSV(students []report.Student, draftsByStudent map[string]*report.ReportDraft, period report.Period) string {
	var sb strings.Builder
	sb.WriteString(utf8BOM)
	writeRecord(&sb, CSVHeader())

	for _, student := range sortStudents(students) {
		fields := []string{student.ID, student.LastName, student.FirstName, string(period)}
		fields = append(fields, boxValues(draftsByStudent[student.ID])...)
		writeRecord(&sb, fields)
	}

	return sb.String()
}

// BuildStudentCSV produces a single-student CSV with the same layout.
func BuildStudentCSV(student report.Student, draft *report.ReportDraft, period report.Period) string {
	return BuildCSV([]report.Student{student}, map[string]*report.ReportDraft{student.ID: draft}, period)
}

func writeRecord(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(quoteAlways(field))
	}
	sb.WriteString("\r\n")
}

// ClassCSVFileName names the whole-roster export deterministically from the
// period.
func ClassCSVFileName(period report.Period) string {
	return fmt.Sprintf("vgreport-%s-class-12box.csv", period)
}

// StudentCSVFileName names a per-student export from period and student name.
func StudentCSVFileName(period report.Period, student report.Student) string {
	return fmt.Sprintf("vgreport-%s-%s_%s-12box.csv", period, student.LastName, student.FirstName)
}
