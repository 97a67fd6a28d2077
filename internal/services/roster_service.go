// Package services exposes high-level operations over the persistent store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/report"
)

// ErrNotFound is returned when a requested record is not found.
var ErrNotFound = errors.New("record not found")

// RosterService manages the student roster.
type RosterService struct {
	students *database.StudentRepository
	drafts   *database.DraftRepository
}

// NewRosterService creates a new RosterService.
func NewRosterService(dbCtx *database.Context) *RosterService {
	return &RosterService{
		students: database.NewStudentRepository(dbCtx),
		drafts:   database.NewDraftRepository(dbCtx),
	}
}

// List returns every student ordered by last name, first name, id.
func (s *RosterService) List(ctx context.Context) ([]report.Student, error) {
	records, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	result := make([]report.Student, 0, len(records))
	for _, rec := range records {
		result = append(result, studentFromRecord(rec))
	}
	return result, nil
}

// Get returns a single student by id.
func (s *RosterService) Get(ctx context.Context, id string) (*report.Student, error) {
	rec, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	student := studentFromRecord(*rec)
	return &student, nil
}

// Upsert stores a student, assigning an id on first save. Returns the stored
// student.
func (s *RosterService) Upsert(ctx context.Context, student report.Student) (report.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if err := s.students.Upsert(ctx, recordFromStudent(student)); err != nil {
		return report.Student{}, fmt.Errorf("failed to upsert student: %w", err)
	}
	return student, nil
}

// Delete removes a student and every draft row that references them.
func (s *RosterService) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := s.drafts.DeleteByStudent(ctx, id); err != nil {
		return false, fmt.Errorf("failed to delete student drafts: %w", err)
	}
	deleted, err := s.students.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete student: %w", err)
	}
	return deleted, nil
}

func studentFromRecord(rec database.StudentRecord) report.Student {
	return report.Student{
		ID:            rec.ID,
		FirstName:     rec.FirstName,
		LastName:      rec.LastName,
		PreferredName: rec.PreferredName,
		Pronouns: report.Pronouns{
			Subject:    rec.PronounsSubject,
			Object:     rec.PronounsObject,
			Possessive: rec.PronounsPossessive,
		},
		Needs: rec.Needs,
	}
}

func recordFromStudent(student report.Student) database.StudentRecord {
	return database.StudentRecord{
		ID:                 student.ID,
		FirstName:          student.FirstName,
		LastName:           student.LastName,
		PreferredName:      student.PreferredName,
		PronounsSubject:    student.Pronouns.Subject,
		PronounsObject:     student.Pronouns.Object,
		PronounsPossessive: student.Pronouns.Possessive,
		Needs:              student.Needs,
	}
}
