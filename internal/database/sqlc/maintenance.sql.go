package sqldb

import "context"

const deleteAllDrafts = `DELETE FROM drafts`

func (q *Queries) DeleteAllDrafts(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllDrafts)
	return err
}

const deleteAllStudents = `DELETE FROM students`

func (q *Queries) DeleteAllStudents(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllStudents)
	return err
}

const deleteAllReportPeriods = `DELETE FROM report_periods`

func (q *Queries) DeleteAllReportPeriods(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllReportPeriods)
	return err
}

const deleteAllSettings = `DELETE FROM app_settings`

func (q *Queries) DeleteAllSettings(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSettings)
	return err
}
