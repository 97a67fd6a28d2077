package sqldb

import (
	"context"
	"database/sql"
)

// Draft mirrors a row in the drafts table. One row per (student, period,
// frame, section) cell.
type Draft struct {
	ID             string
	StudentID      string
	ReportPeriodID string
	Frame          string
	Section        string
	TemplateID     sql.NullString
	SlotValuesJson string
	RenderedText   sql.NullString
	Author         string
	Status         string
	UpdatedAt      sql.NullTime
}

const listDraftsByPeriod = `
SELECT id, student_id, report_period_id, frame, section, template_id, slot_values_json, rendered_text, author, status, updated_at
FROM drafts
WHERE report_period_id = ?
`

func (q *Queries) ListDraftsByPeriod(ctx context.Context, reportPeriodID string) ([]Draft, error) {
	rows, err := q.db.QueryContext(ctx, listDraftsByPeriod, reportPeriodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Draft
	for rows.Next() {
		var i Draft
		if err := rows.Scan(
			&i.ID,
			&i.StudentID,
			&i.ReportPeriodID,
			&i.Frame,
			&i.Section,
			&i.TemplateID,
			&i.SlotValuesJson,
			&i.RenderedText,
			&i.Author,
			&i.Status,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertDraft = `
INSERT INTO drafts (
  id, student_id, report_period_id, frame, section, template_id,
  slot_values_json, rendered_text, author, status, updated_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(student_id, report_period_id, frame, section) DO UPDATE SET
  template_id=excluded.template_id,
  slot_values_json=excluded.slot_values_json,
  rendered_text=excluded.rendered_text,
  author=excluded.author,
  status=excluded.status,
  updated_at=datetime('now')
`

type UpsertDraftParams struct {
	ID             string
	StudentID      string
	ReportPeriodID string
	Frame          string
	Section        string
	TemplateID     sql.NullString
	SlotValuesJson string
	RenderedText   sql.NullString
	Author         string
	Status         string
}

func (q *Queries) UpsertDraft(ctx context.Context, arg UpsertDraftParams) error {
	_, err := q.db.ExecContext(ctx, upsertDraft,
		arg.ID,
		arg.StudentID,
		arg.ReportPeriodID,
		arg.Frame,
		arg.Section,
		arg.TemplateID,
		arg.SlotValuesJson,
		arg.RenderedText,
		arg.Author,
		arg.Status,
	)
	return err
}

const deleteDraftsByStudent = `
DELETE FROM drafts WHERE student_id = ?
`

func (q *Queries) DeleteDraftsByStudent(ctx context.Context, studentID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDraftsByStudent, studentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
