package database

import (
	"encoding/json"

	sqldb "github.com/vgreport/vgdraft/internal/database/sqlc"
)

// StudentRecordFromRow converts a sqlc student row to a record. The needs
// column holds a JSON array; unreadable values degrade to an empty list.
func StudentRecordFromRow(row sqldb.Student) StudentRecord {
	var needs []string
	if err := json.Unmarshal([]byte(row.NeedsJson), &needs); err != nil {
		needs = nil
	}
	return StudentRecord{
		ID:                 row.ID,
		FirstName:          row.FirstName,
		LastName:           row.LastName,
		PreferredName:      optionalString(row.PreferredName),
		PronounsSubject:    optionalString(row.PronounsSubject),
		PronounsObject:     optionalString(row.PronounsObject),
		PronounsPossessive: optionalString(row.PronounsPossessive),
		Needs:              needs,
		CreatedAt:          optionalTime(row.CreatedAt),
		UpdatedAt:          optionalTime(row.UpdatedAt),
	}
}

// DraftRecordFromRow converts a sqlc draft row to a record. Slot values hold
// a JSON object; unreadable values degrade to an empty map.
func DraftRecordFromRow(row sqldb.Draft) DraftRecord {
	slots := map[string]string{}
	if err := json.Unmarshal([]byte(row.SlotValuesJson), &slots); err != nil {
		slots = map[string]string{}
	}
	return DraftRecord{
		StudentID:      row.StudentID,
		ReportPeriodID: row.ReportPeriodID,
		Frame:          row.Frame,
		Section:        row.Section,
		TemplateID:     optionalStringPtr(row.TemplateID),
		SlotValues:     slots,
		RenderedText:   optionalStringPtr(row.RenderedText),
		Author:         row.Author,
		Status:         row.Status,
		UpdatedAt:      optionalTime(row.UpdatedAt),
	}
}

// ReportPeriodRecordFromRow converts a sqlc report period row to a record.
func ReportPeriodRecordFromRow(row sqldb.ReportPeriod) ReportPeriodRecord {
	return ReportPeriodRecord{
		ID:       row.ID,
		Name:     optionalString(row.Name),
		BoardID:  optionalString(row.BoardID),
		IsActive: optionalBool(row.IsActive),
	}
}

func upsertStudentParams(record StudentRecord) (sqldb.UpsertStudentParams, error) {
	needs := record.Needs
	if needs == nil {
		needs = []string{}
	}
	needsJSON, err := json.Marshal(needs)
	if err != nil {
		return sqldb.UpsertStudentParams{}, err
	}
	return sqldb.UpsertStudentParams{
		ID:                 record.ID,
		FirstName:          record.FirstName,
		LastName:           record.LastName,
		PreferredName:      nullString(record.PreferredName),
		PronounsSubject:    nullString(record.PronounsSubject),
		PronounsObject:     nullString(record.PronounsObject),
		PronounsPossessive: nullString(record.PronounsPossessive),
		NeedsJson:          string(needsJSON),
	}, nil
}

func upsertDraftParams(record DraftRecord) (sqldb.UpsertDraftParams, error) {
	slots := record.SlotValues
	if slots == nil {
		slots = map[string]string{}
	}
	slotsJSON, err := json.Marshal(slots)
	if err != nil {
		return sqldb.UpsertDraftParams{}, err
	}

	author := record.Author
	if author == "" {
		author = "teacher"
	}
	status := record.Status
	if status == "" {
		status = "approved"
	}

	return sqldb.UpsertDraftParams{
		ID:             record.Key(),
		StudentID:      record.StudentID,
		ReportPeriodID: record.ReportPeriodID,
		Frame:          record.Frame,
		Section:        record.Section,
		TemplateID:     stringPtrToNullString(record.TemplateID),
		SlotValuesJson: string(slotsJSON),
		RenderedText:   stringPtrToNullString(record.RenderedText),
		Author:         author,
		Status:         status,
	}, nil
}
