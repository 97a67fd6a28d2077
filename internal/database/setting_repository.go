package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sqldb "github.com/vgreport/vgdraft/internal/database/sqlc"
)

type SettingRepository struct {
	ctx *Context
}

func NewSettingRepository(dbCtx *Context) *SettingRepository {
	return &SettingRepository{ctx: dbCtx}
}

// Get returns the raw JSON value for a key, or nil when the key is unset.
func (r *SettingRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("setting repository: missing database context")
	}

	row, err := queries.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return json.RawMessage(row.ValueJson), nil
}

// Set stores a JSON value under a key, replacing any previous value.
func (r *SettingRepository) Set(ctx context.Context, key string, value json.RawMessage) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("setting repository: missing database context")
	}

	return queries.UpsertSetting(ctx, sqldb.UpsertSettingParams{
		Key:       key,
		ValueJson: string(value),
	})
}

func (r *SettingRepository) Delete(ctx context.Context, key string) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("setting repository: missing database context")
	}

	affected, err := queries.DeleteSetting(ctx, key)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
