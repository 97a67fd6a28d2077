package database

import (
	"context"
	"fmt"

	sqldb "github.com/vgreport/vgdraft/internal/database/sqlc"
)

type PeriodRepository struct {
	ctx *Context
}

func NewPeriodRepository(dbCtx *Context) *PeriodRepository {
	return &PeriodRepository{ctx: dbCtx}
}

func (r *PeriodRepository) List(ctx context.Context) ([]ReportPeriodRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("period repository: missing database context")
	}

	rows, err := queries.ListReportPeriods(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ReportPeriodRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, ReportPeriodRecordFromRow(row))
	}
	return result, nil
}

// SetActive marks the given period active and all others inactive, creating
// the row on first use.
func (r *PeriodRepository) SetActive(ctx context.Context, record ReportPeriodRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("period repository: missing database context")
	}

	if err := queries.DeactivateReportPeriods(ctx); err != nil {
		return err
	}
	return queries.UpsertReportPeriod(ctx, sqldb.UpsertReportPeriodParams{
		ID:       record.ID,
		Name:     nullString(record.Name),
		BoardID:  nullString(record.BoardID),
		IsActive: boolToNullInt64(true),
	})
}
