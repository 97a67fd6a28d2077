package database

import (
	"encoding/json"
	"time"
)

// StudentRecord represents a row in the students table.
type StudentRecord struct {
	ID                 string
	FirstName          string
	LastName           string
	PreferredName      string
	PronounsSubject    string
	PronounsObject     string
	PronounsPossessive string
	Needs              []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DraftRecord represents a row in the drafts table: the persisted form of one
// comment cell for one student in one reporting period.
type DraftRecord struct {
	StudentID      string
	ReportPeriodID string
	Frame          string
	Section        string
	TemplateID     *string
	SlotValues     map[string]string
	RenderedText   *string
	Author         string
	Status         string
	UpdatedAt      time.Time
}

// Key returns the composite row id used as the drafts primary key.
func (r DraftRecord) Key() string {
	return r.StudentID + ":" + r.ReportPeriodID + ":" + r.Frame + ":" + r.Section
}

// SettingRecord mirrors the app_settings table. Values are raw JSON so the
// caller decides the concrete shape.
type SettingRecord struct {
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// ReportPeriodRecord mirrors the report_periods table.
type ReportPeriodRecord struct {
	ID       string
	Name     string
	BoardID  string
	IsActive bool
}
