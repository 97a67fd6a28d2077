// Package report provides the domain types for kindergarten report-card drafts.
package report

// Period identifies a reporting period within the school year.
type Period string

const (
	PeriodInitial  Period = "initial"
	PeriodFebruary Period = "february"
	PeriodJune     Period = "june"
)

// Periods returns all reporting periods in school-year order.
func Periods() []Period {
	return []Period{PeriodInitial, PeriodFebruary, PeriodJune}
}

// ValidPeriod reports whether p is one of the known reporting periods.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodInitial, PeriodFebruary, PeriodJune:
		return true
	default:
		return false
	}
}

// Role identifies who authored a comment. The two variants carry different
// default approval behaviour: teacher drafts start approved, ECE drafts start
// as drafts pending review.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleECE     Role = "ece"
)

// ValidRole reports whether r is a known authorship role.
func ValidRole(r Role) bool {
	return r == RoleTeacher || r == RoleECE
}

// Status is the approval state of a comment.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// Pronouns holds the subject/object/possessive triple used when rendering
// comment templates for a student.
type Pronouns struct {
	Subject    string
	Object     string
	Possessive string
}

// Student is a roster entry. Drafts reference students by ID only.
type Student struct {
	ID            string
	FirstName     string
	LastName      string
	PreferredName string
	Pronouns      Pronouns
	Needs         []string
}

// DisplayName returns the preferred name when set, otherwise the first name.
func (s Student) DisplayName() string {
	if s.PreferredName != "" {
		return s.PreferredName
	}
	return s.FirstName
}

// ValidationResult carries the rendering engine's verdict on a comment.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Clone returns a deep copy of the validation result.
func (v *ValidationResult) Clone() *ValidationResult {
	if v == nil {
		return nil
	}
	out := &ValidationResult{Valid: v.Valid}
	if v.Errors != nil {
		out.Errors = append([]string(nil), v.Errors...)
	}
	if v.Warnings != nil {
		out.Warnings = append([]string(nil), v.Warnings...)
	}
	return out
}

// CommentDraft is the unit of editable content for a single box.
type CommentDraft struct {
	TemplateID string
	Slots      map[string]string
	Rendered   string
	Validation *ValidationResult
	Author     Role
	Status     Status
}

// Clone returns a deep copy so history snapshots cannot be corrupted by later
// mutation of the live draft.
func (c CommentDraft) Clone() CommentDraft {
	out := c
	if c.Slots != nil {
		out.Slots = make(map[string]string, len(c.Slots))
		for k, v := range c.Slots {
			out.Slots[k] = v
		}
	}
	out.Validation = c.Validation.Clone()
	return out
}

// IsEmpty reports whether the draft carries no user content at all.
func (c CommentDraft) IsEmpty() bool {
	return c.TemplateID == "" && len(c.Slots) == 0 && c.Rendered == "" &&
		c.Validation == nil && c.Author == "" && c.Status == ""
}

// ContentEqual compares the undoable content of two drafts: the template
// reference and slot values. Rendered text, validation, and approval metadata
// are derived from or orthogonal to this pair and do not create history.
func ContentEqual(a, b CommentDraft) bool {
	if a.TemplateID != b.TemplateID {
		return false
	}
	if len(a.Slots) != len(b.Slots) {
		return false
	}
	for k, v := range a.Slots {
		if b.Slots[k] != v {
			return false
		}
	}
	return true
}

// ReportDraft holds every comment for one student in one reporting period.
// Absent cells are read as empty drafts.
type ReportDraft struct {
	StudentID string
	Period    Period
	Comments  map[FrameID]map[SectionID]CommentDraft
}

// NewReportDraft creates an empty draft for a student and period.
func NewReportDraft(studentID string, period Period) *ReportDraft {
	return &ReportDraft{
		StudentID: studentID,
		Period:    period,
		Comments:  make(map[FrameID]map[SectionID]CommentDraft),
	}
}

// Comment returns the draft at the given cell, or an empty draft when the cell
// has never been written.
func (d *ReportDraft) Comment(frame FrameID, section SectionID) CommentDraft {
	if d == nil || d.Comments == nil {
		return CommentDraft{}
	}
	return d.Comments[frame][section]
}

// SetComment stores a draft at the given cell, allocating the frame map on
// first write.
func (d *ReportDraft) SetComment(frame FrameID, section SectionID, c CommentDraft) {
	if d.Comments == nil {
		d.Comments = make(map[FrameID]map[SectionID]CommentDraft)
	}
	if d.Comments[frame] == nil {
		d.Comments[frame] = make(map[SectionID]CommentDraft)
	}
	d.Comments[frame][section] = c
}

// Clone returns a deep copy of the report draft.
func (d *ReportDraft) Clone() *ReportDraft {
	if d == nil {
		return nil
	}
	out := NewReportDraft(d.StudentID, d.Period)
	for frame, sections := range d.Comments {
		for section, comment := range sections {
			out.SetComment(frame, section, comment.Clone())
		}
	}
	return out
}
