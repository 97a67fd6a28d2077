package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/report"
)

// DraftService loads and persists comment drafts.
type DraftService struct {
	drafts *database.DraftRepository
	logger *zap.Logger
}

// NewDraftService creates a new DraftService. A nil logger disables logging.
func NewDraftService(dbCtx *database.Context, logger *zap.Logger) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		drafts: database.NewDraftRepository(dbCtx),
		logger: logger,
	}
}

// ListByPeriod hydrates every report draft for a period, keyed by student id.
// Rows naming unknown frames or sections are logged and skipped.
func (s *DraftService) ListByPeriod(ctx context.Context, period report.Period) (map[string]*report.ReportDraft, error) {
	rows, err := s.drafts.ListByPeriod(ctx, string(period))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	result := make(map[string]*report.ReportDraft)
	for _, row := range rows {
		frame := report.FrameID(row.Frame)
		section := report.SectionID(row.Section)
		if err := report.ValidateCell(frame, section); err != nil {
			s.logger.Warn("skipping draft row with unknown cell",
				zap.String("student_id", row.StudentID),
				zap.String("frame", row.Frame),
				zap.String("section", row.Section))
			continue
		}

		draft := result[row.StudentID]
		if draft == nil {
			draft = report.NewReportDraft(row.StudentID, period)
			result[row.StudentID] = draft
		}
		draft.SetComment(frame, section, commentFromRecord(row))
	}
	return result, nil
}

// Upsert writes one draft row, replacing any previous row for its cell.
func (s *DraftService) Upsert(ctx context.Context, record database.DraftRecord) error {
	if err := s.drafts.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert draft: %w", err)
	}
	return nil
}

// RecordFor converts one in-memory comment to its persisted row form.
func RecordFor(studentID string, period report.Period, frame report.FrameID, section report.SectionID, c report.CommentDraft) database.DraftRecord {
	rec := database.DraftRecord{
		StudentID:      studentID,
		ReportPeriodID: string(period),
		Frame:          string(frame),
		Section:        string(section),
		SlotValues:     c.Slots,
		Author:         string(c.Author),
		Status:         string(c.Status),
	}
	if c.TemplateID != "" {
		tpl := c.TemplateID
		rec.TemplateID = &tpl
	}
	if c.Rendered != "" {
		rendered := c.Rendered
		rec.RenderedText = &rendered
	}
	return rec
}

func commentFromRecord(row database.DraftRecord) report.CommentDraft {
	c := report.CommentDraft{
		Slots:  row.SlotValues,
		Author: report.Role(row.Author),
		Status: report.Status(row.Status),
	}
	if row.TemplateID != nil {
		c.TemplateID = *row.TemplateID
	}
	if row.RenderedText != nil {
		c.Rendered = *row.RenderedText
	}
	return c
}
