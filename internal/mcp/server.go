// Package mcp exposes the draft engine to an external shell over the Model
// Context Protocol's stdio transport.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vgreport/vgdraft/internal/config"
	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/export"
	"github.com/vgreport/vgdraft/internal/report"
	"github.com/vgreport/vgdraft/internal/services"
	"github.com/vgreport/vgdraft/internal/store"
)

// Server wraps the MCP server around the draft engine.
type Server struct {
	server *mcp.Server
	dbCtx  *database.Context
	store  *store.Store
	roster *services.RosterService
}

// NewServer opens the database, hydrates the draft store for the persisted
// period and role, and registers the engine tools.
func NewServer(ctx context.Context) (*Server, error) {
	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	roster := services.NewRosterService(dbCtx)
	drafts := services.NewDraftService(dbCtx, nil)
	settings := services.NewSettingService(dbCtx)

	st := store.New(drafts, roster)

	period, err := settings.ActivePeriod(ctx)
	if err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}
	if err := st.SetPeriod(ctx, period); err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}
	role, err := settings.ActiveRole(ctx)
	if err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}
	if err := st.SetRole(role); err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}
	if err := st.Load(ctx); err != nil {
		database.CloseDatabase(dbCtx)
		return nil, err
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "vgdraft",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server: mcpServer,
		dbCtx:  dbCtx,
		store:  st,
		roster: roster,
	}
	s.registerTools()

	return s, nil
}

// Run serves MCP over stdio until ctx is cancelled, flushing pending draft
// writes before closing the database.
func (s *Server) Run(ctx context.Context) error {
	defer database.CloseDatabase(s.dbCtx)
	defer s.store.Flush(context.Background())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_update",
		Description: "Apply a partial update to one comment box",
	}, s.handleDraftUpdate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_approve",
		Description: "Mark one comment box approved without changing its author",
	}, s.handleDraftApprove)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_undo",
		Description: "Undo the most recent edit",
	}, s.handleDraftUndo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_redo",
		Description: "Redo the most recently undone edit",
	}, s.handleDraftRedo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_flush",
		Description: "Write every pending draft change to disk immediately",
	}, s.handleDraftFlush)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "roster_list",
		Description: "List students with per-box readiness counts",
	}, s.handleRosterList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_csv",
		Description: "Export the class (or one student) as a 12-box CSV file",
	}, s.handleExportCSV)
}

// Input/Output types for each tool

type DraftUpdateInput struct {
	StudentID  string            `json:"studentId" jsonschema:"required,description=The student whose box is edited"`
	Frame      string            `json:"frame" jsonschema:"required,description=Frame id"`
	Section    string            `json:"section" jsonschema:"required,description=Section id"`
	TemplateID *string           `json:"templateId,omitempty" jsonschema:"description=Template reference"`
	Slots      map[string]string `json:"slots,omitempty" jsonschema:"description=Slot values, replaces the current slot map"`
	Rendered   *string           `json:"rendered,omitempty" jsonschema:"description=Rendered comment text"`
	Status     *string           `json:"status,omitempty" jsonschema:"enum=draft;approved,description=Explicit status override"`
}

type DraftUpdateOutput struct {
	Author     string `json:"author"`
	Status     string `json:"status"`
	SaveStatus string `json:"saveStatus"`
}

type DraftCellInput struct {
	StudentID string `json:"studentId" jsonschema:"required,description=The student whose box is approved"`
	Frame     string `json:"frame" jsonschema:"required,description=Frame id"`
	Section   string `json:"section" jsonschema:"required,description=Section id"`
}

type DraftMetaOutput struct {
	Author string `json:"author"`
	Status string `json:"status"`
}

type EmptyInput struct{}

type HistoryOutput struct {
	Applied   bool `json:"applied"`
	UndoDepth int  `json:"undoDepth"`
	RedoDepth int  `json:"redoDepth"`
}

type FlushOutput struct {
	SaveStatus string `json:"saveStatus"`
	LastError  string `json:"lastError,omitempty"`
}

type RosterListOutput struct {
	Students []RosterEntry `json:"students"`
}

type RosterEntry struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	ReadyBoxes  int    `json:"readyBoxes"`
	TotalBoxes  int    `json:"totalBoxes"`
	NeedsReview bool   `json:"needsReview"`
}

type ExportCSVInput struct {
	StudentID *string `json:"studentId,omitempty" jsonschema:"description=Export a single student instead of the whole class"`
	OutputDir *string `json:"outputDir,omitempty" jsonschema:"description=Directory for the CSV file, defaults to the app export directory"`
}

type ExportCSVOutput struct {
	Path string `json:"path"`
}

// Tool handlers

func (s *Server) handleDraftUpdate(ctx context.Context, req *mcp.CallToolRequest, input DraftUpdateInput) (*mcp.CallToolResult, DraftUpdateOutput, error) {
	patch := store.CommentPatch{
		TemplateID: input.TemplateID,
		Slots:      input.Slots,
		Rendered:   input.Rendered,
	}
	if input.Status != nil {
		status := report.Status(*input.Status)
		if status != report.StatusDraft && status != report.StatusApproved {
			return nil, DraftUpdateOutput{}, fmt.Errorf("invalid status: %s", *input.Status)
		}
		patch.Status = &status
	}

	if err := s.store.UpdateComment(input.StudentID, report.FrameID(input.Frame), report.SectionID(input.Section), patch); err != nil {
		return nil, DraftUpdateOutput{}, fmt.Errorf("failed to update draft: %w", err)
	}

	c := s.store.Comment(input.StudentID, report.FrameID(input.Frame), report.SectionID(input.Section))
	return nil, DraftUpdateOutput{
		Author:     string(c.Author),
		Status:     string(c.Status),
		SaveStatus: string(s.store.SaveStatus().State),
	}, nil
}

func (s *Server) handleDraftApprove(ctx context.Context, req *mcp.CallToolRequest, input DraftCellInput) (*mcp.CallToolResult, DraftMetaOutput, error) {
	frame := report.FrameID(input.Frame)
	section := report.SectionID(input.Section)
	if err := s.store.ApproveComment(input.StudentID, frame, section); err != nil {
		return nil, DraftMetaOutput{}, fmt.Errorf("failed to approve draft: %w", err)
	}

	c := s.store.Comment(input.StudentID, frame, section)
	return nil, DraftMetaOutput{Author: string(c.Author), Status: string(c.Status)}, nil
}

func (s *Server) handleDraftUndo(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, HistoryOutput, error) {
	applied := s.store.Undo()
	return nil, HistoryOutput{
		Applied:   applied,
		UndoDepth: s.store.UndoDepth(),
		RedoDepth: s.store.RedoDepth(),
	}, nil
}

func (s *Server) handleDraftRedo(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, HistoryOutput, error) {
	applied := s.store.Redo()
	return nil, HistoryOutput{
		Applied:   applied,
		UndoDepth: s.store.UndoDepth(),
		RedoDepth: s.store.RedoDepth(),
	}, nil
}

func (s *Server) handleDraftFlush(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, FlushOutput, error) {
	if err := s.store.Flush(ctx); err != nil {
		status := s.store.SaveStatus()
		return nil, FlushOutput{SaveStatus: string(status.State), LastError: status.LastError}, nil
	}
	return nil, FlushOutput{SaveStatus: string(s.store.SaveStatus().State)}, nil
}

func (s *Server) handleRosterList(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, RosterListOutput, error) {
	students := s.store.Students()
	drafts := s.store.Drafts()

	entries := make([]RosterEntry, 0, len(students))
	for _, student := range students {
		draft := drafts[student.ID]
		ready, total := export.BoxCounts(draft)
		entries = append(entries, RosterEntry{
			ID:          student.ID,
			FirstName:   student.FirstName,
			LastName:    student.LastName,
			ReadyBoxes:  ready,
			TotalBoxes:  total,
			NeedsReview: export.NeedsReview(draft),
		})
	}

	return nil, RosterListOutput{Students: entries}, nil
}

func (s *Server) handleExportCSV(ctx context.Context, req *mcp.CallToolRequest, input ExportCSVInput) (*mcp.CallToolResult, ExportCSVOutput, error) {
	if err := s.store.Flush(ctx); err != nil {
		return nil, ExportCSVOutput{}, fmt.Errorf("failed to flush drafts before export: %w", err)
	}

	dir := config.GetExportDir()
	if input.OutputDir != nil {
		dir = *input.OutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ExportCSVOutput{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	period := s.store.Period()
	drafts := s.store.Drafts()

	var name, content string
	if input.StudentID != nil {
		student, err := s.roster.Get(ctx, *input.StudentID)
		if err != nil {
			return nil, ExportCSVOutput{}, fmt.Errorf("failed to find student: %w", err)
		}
		name = export.StudentCSVFileName(period, *student)
		content = export.BuildStudentCSV(*student, drafts[student.ID], period)
	} else {
		name = export.ClassCSVFileName(period)
		content = export.BuildCSV(s.store.Students(), drafts, period)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, ExportCSVOutput{}, fmt.Errorf("failed to write CSV: %w", err)
	}

	return nil, ExportCSVOutput{Path: path}, nil
}
