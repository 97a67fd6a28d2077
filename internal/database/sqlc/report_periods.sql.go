package sqldb

import (
	"context"
	"database/sql"
)

// ReportPeriod mirrors a row in the report_periods table.
type ReportPeriod struct {
	ID       string
	Name     sql.NullString
	BoardID  sql.NullString
	IsActive sql.NullInt64
	LockedAt sql.NullString
}

const listReportPeriods = `
SELECT id, name, board_id, is_active, locked_at FROM report_periods ORDER BY id
`

func (q *Queries) ListReportPeriods(ctx context.Context) ([]ReportPeriod, error) {
	rows, err := q.db.QueryContext(ctx, listReportPeriods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportPeriod
	for rows.Next() {
		var i ReportPeriod
		if err := rows.Scan(&i.ID, &i.Name, &i.BoardID, &i.IsActive, &i.LockedAt); err != nil {
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

const upsertReportPeriod = `
INSERT INTO report_periods (id, name, board_id, is_active)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  board_id=excluded.board_id,
  is_active=excluded.is_active
`

type UpsertReportPeriodParams struct {
	ID       string
	Name     sql.NullString
	BoardID  sql.NullString
	IsActive sql.NullInt64
}

func (q *Queries) UpsertReportPeriod(ctx context.Context, arg UpsertReportPeriodParams) error {
	_, err := q.db.ExecContext(ctx, upsertReportPeriod, arg.ID, arg.Name, arg.BoardID, arg.IsActive)
	return err
}

const deactivateReportPeriods = `
UPDATE report_periods SET is_active = 0
`

func (q *Queries) DeactivateReportPeriods(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deactivateReportPeriods)
	return err
}
