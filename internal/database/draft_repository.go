package database

import (
	"context"
	"fmt"
)

type DraftRepository struct {
	ctx *Context
}

func NewDraftRepository(dbCtx *Context) *DraftRepository {
	return &DraftRepository{ctx: dbCtx}
}

func (r *DraftRepository) ListByPeriod(ctx context.Context, periodID string) ([]DraftRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("draft repository: missing database context")
	}

	rows, err := queries.ListDraftsByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	result := make([]DraftRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, DraftRecordFromRow(row))
	}
	return result, nil
}

func (r *DraftRepository) Upsert(ctx context.Context, record DraftRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("draft repository: missing database context")
	}

	params, err := upsertDraftParams(record)
	if err != nil {
		return err
	}
	return queries.UpsertDraft(ctx, params)
}

func (r *DraftRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("draft repository: missing database context")
	}

	return queries.DeleteDraftsByStudent(ctx, studentID)
}
