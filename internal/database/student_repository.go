package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type StudentRepository struct {
	ctx *Context
}

func NewStudentRepository(dbCtx *Context) *StudentRepository {
	return &StudentRepository{ctx: dbCtx}
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*StudentRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("student repository: missing database context")
	}

	row, err := queries.FindStudentByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := StudentRecordFromRow(row)
	return &record, nil
}

func (r *StudentRepository) List(ctx context.Context) ([]StudentRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("student repository: missing database context")
	}

	rows, err := queries.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]StudentRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, StudentRecordFromRow(row))
	}
	return result, nil
}

func (r *StudentRepository) Upsert(ctx context.Context, record StudentRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("student repository: missing database context")
	}

	params, err := upsertStudentParams(record)
	if err != nil {
		return err
	}
	return queries.UpsertStudent(ctx, params)
}

func (r *StudentRepository) Delete(ctx context.Context, id string) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("student repository: missing database context")
	}

	affected, err := queries.DeleteStudentByID(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
