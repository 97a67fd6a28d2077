package sqldb

import (
	"context"
	"database/sql"
)

// AppSetting mirrors a row in the app_settings table. Values are stored as
// JSON documents.
type AppSetting struct {
	Key       string
	ValueJson string
	UpdatedAt sql.NullTime
}

const getSetting = `
SELECT key, value_json, updated_at FROM app_settings WHERE key = ?
`

func (q *Queries) GetSetting(ctx context.Context, key string) (AppSetting, error) {
	row := q.db.QueryRowContext(ctx, getSetting, key)
	var i AppSetting
	err := row.Scan(&i.Key, &i.ValueJson, &i.UpdatedAt)
	return i, err
}

const upsertSetting = `
INSERT INTO app_settings (key, value_json, updated_at)
VALUES (?, ?, datetime('now'))
ON CONFLICT(key) DO UPDATE SET
  value_json=excluded.value_json,
  updated_at=datetime('now')
`

type UpsertSettingParams struct {
	Key       string
	ValueJson string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.Key, arg.ValueJson)
	return err
}

const deleteSetting = `
DELETE FROM app_settings WHERE key = ?
`

func (q *Queries) DeleteSetting(ctx context.Context, key string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSetting, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
