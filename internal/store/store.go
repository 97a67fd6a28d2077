// Package store is the stateful core of the draft engine. It owns every
// in-memory comment, mediates mutations through the authorship rules, keeps
// bounded undo/redo history, and debounces persistence per cell.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/report"
)

// SaveState is the process-wide persistence indicator.
type SaveState string

const (
	SaveIdle   SaveState = "idle"
	SaveSaving SaveState = "saving"
	SaveSaved  SaveState = "saved"
	SaveError  SaveState = "error"
)

// SaveStatus pairs the save state with the last write error, if any.
type SaveStatus struct {
	State     SaveState
	LastError string
}

// DraftBackend is the durability layer the store writes through.
type DraftBackend interface {
	ListByPeriod(ctx context.Context, period report.Period) (map[string]*report.ReportDraft, error)
	Upsert(ctx context.Context, record database.DraftRecord) error
}

// RosterBackend supplies the student list on hydration.
type RosterBackend interface {
	List(ctx context.Context) ([]report.Student, error)
}

// CommentPatch is a partial update to one cell. Nil fields are preserved from
// the current comment, which is how a slot edit keeps its rendered text and a
// render result keeps its slots.
type CommentPatch struct {
	TemplateID *string
	Slots      map[string]string
	Rendered   *string
	Validation *report.ValidationResult
	Author     *report.Role
	Status     *report.Status
}

// Store holds all drafts for the active reporting period.
type Store struct {
	backend DraftBackend
	roster  RosterBackend
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	drafts   map[string]*report.ReportDraft
	students []report.Student
	role     report.Role
	period   report.Period
	history  *history
	status   SaveStatus

	sched *scheduler

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	debounce time.Duration
	window   time.Duration
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

// WithDebounce overrides the persistence debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithCoalesceWindow overrides the undo coalescing window.
func WithCoalesceWindow(d time.Duration) Option {
	return func(o *options) { o.window = d }
}

// WithHistoryCap overrides the undo stack bound.
func WithHistoryCap(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock overrides the history clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a Store over the given backends. The store starts with the
// teacher role and the February reporting period until told otherwise.
func New(backend DraftBackend, roster RosterBackend, opts ...Option) *Store {
	o := options{
		debounce: DefaultDebounce,
		window:   DefaultCoalesceWindow,
		capacity: DefaultHistoryCap,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		backend: backend,
		roster:  roster,
		logger:  o.logger,
		now:     o.now,
		drafts:  make(map[string]*report.ReportDraft),
		role:    report.RoleTeacher,
		period:  report.PeriodFebruary,
		history: newHistory(o.window, o.capacity),
		status:  SaveStatus{State: SaveIdle},
		subs:    make(map[int]func()),
	}
	s.sched = newScheduler(o.debounce, s.persist)
	return s
}

// Subscribe registers a callback invoked after every state change. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Load hydrates the roster and every draft for the active period, resetting
// history and save status.
func (s *Store) Load(ctx context.Context) error {
	students, err := s.roster.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	s.mu.Lock()
	period := s.period
	s.mu.Unlock()

	drafts, err := s.backend.ListByPeriod(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to load drafts: %w", err)
	}

	s.mu.Lock()
	s.students = students
	s.drafts = drafts
	s.history.Reset()
	s.status = SaveStatus{State: SaveIdle}
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetRole changes the active authorship role for subsequent edits.
func (s *Store) SetRole(role report.Role) error {
	if !report.ValidRole(role) {
		return fmt.Errorf("invalid role: %s", role)
	}
	s.mu.Lock()
	s.role = role
	s.mu.Unlock()
	s.notify()
	return nil
}

// Role returns the active authorship role.
func (s *Store) Role() report.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Period returns the active reporting period.
func (s *Store) Period() report.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// SetPeriod switches the active reporting period: the in-memory draft set is
// fully replaced with rows for the new period and both history stacks are
// cleared.
func (s *Store) SetPeriod(ctx context.Context, period report.Period) error {
	if !report.ValidPeriod(period) {
		return fmt.Errorf("invalid reporting period: %s", period)
	}

	drafts, err := s.backend.ListByPeriod(ctx, period)
	if err != nil {
		return fmt.Errorf("failed to load drafts for %s: %w", period, err)
	}

	s.mu.Lock()
	s.period = period
	s.drafts = drafts
	s.history.Reset()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Students returns the hydrated roster.
func (s *Store) Students() []report.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.Student(nil), s.students...)
}

// Draft returns a deep copy of one student's report draft, or nil when the
// student has no draft yet.
func (s *Store) Draft(studentID string) *report.ReportDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[studentID].Clone()
}

// Drafts returns a deep copy of the whole draft set keyed by student id.
func (s *Store) Drafts() map[string]*report.ReportDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*report.ReportDraft, len(s.drafts))
	for id, d := range s.drafts {
		out[id] = d.Clone()
	}
	return out
}

// Comment returns a deep copy of one cell.
func (s *Store) Comment(studentID string, frame report.FrameID, section report.SectionID) report.CommentDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[studentID].Comment(frame, section).Clone()
}

// SaveStatus returns the process-wide persistence indicator.
func (s *Store) SaveStatus() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// UndoDepth and RedoDepth report the history stack sizes.
func (s *Store) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.UndoDepth()
}

func (s *Store) RedoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.RedoDepth()
}

// UpdateComment applies a partial update to one cell. The merged comment's
// author and status come from the authorship rules, the edit lands in history
// when the template/slot content changed, and a debounced persistence write
// is scheduled.
func (s *Store) UpdateComment(studentID string, frame report.FrameID, section report.SectionID, patch CommentPatch) error {
	if err := report.ValidateCell(frame, section); err != nil {
		return err
	}
	if studentID == "" {
		return fmt.Errorf("missing student id")
	}

	s.mu.Lock()
	current := s.drafts[studentID].Comment(frame, section)

	var existing *report.DraftMeta
	if current.Author != "" || current.Status != "" {
		existing = &report.DraftMeta{Author: current.Author, Status: current.Status}
	}
	var override *report.MetaOverride
	if patch.Author != nil || patch.Status != nil {
		override = &report.MetaOverride{Author: patch.Author, Status: patch.Status}
	}
	meta := report.Normalize(s.role, existing, override)

	merged := current.Clone()
	if patch.TemplateID != nil {
		merged.TemplateID = *patch.TemplateID
	}
	if patch.Slots != nil {
		slots := make(map[string]string, len(patch.Slots))
		for k, v := range patch.Slots {
			slots[k] = v
		}
		merged.Slots = slots
	}
	if patch.Rendered != nil {
		merged.Rendered = *patch.Rendered
	}
	if patch.Validation != nil {
		merged.Validation = patch.Validation.Clone()
	}
	merged.Author = meta.Author
	merged.Status = meta.Status

	if !report.ContentEqual(current, merged) {
		s.history.Push(HistoryEntry{
			StudentID: studentID,
			Frame:     frame,
			Section:   section,
			Before:    current.Clone(),
			After:     merged.Clone(),
			At:        s.now(),
		})
	}
	s.history.ClearRedo()

	s.commitLocked(studentID, frame, section, merged)
	s.mu.Unlock()

	s.notify()
	return nil
}

// ApproveComment flips one cell to approved without touching its author.
func (s *Store) ApproveComment(studentID string, frame report.FrameID, section report.SectionID) error {
	status := report.StatusApproved
	return s.UpdateComment(studentID, frame, section, CommentPatch{Status: &status})
}

// Undo reverts the most recent edit by replaying its before snapshot. The
// replay does not create history, redo is the only way back. Returns false
// when there is nothing to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	entry, ok := s.history.Undo()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.commitLocked(entry.StudentID, entry.Frame, entry.Section, entry.Before.Clone())
	s.mu.Unlock()

	s.notify()
	return true
}

// Redo re-applies the most recently undone edit's after snapshot.
func (s *Store) Redo() bool {
	s.mu.Lock()
	entry, ok := s.history.Redo()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.commitLocked(entry.StudentID, entry.Frame, entry.Section, entry.After.Clone())
	s.mu.Unlock()

	s.notify()
	return true
}

// commitLocked writes a comment into the draft map and schedules its
// persistence. Callers hold s.mu.
func (s *Store) commitLocked(studentID string, frame report.FrameID, section report.SectionID, c report.CommentDraft) {
	draft := s.drafts[studentID]
	if draft == nil {
		draft = report.NewReportDraft(studentID, s.period)
		s.drafts[studentID] = draft
	}
	draft.SetComment(frame, section, c)

	s.status = SaveStatus{State: SaveSaving}
	s.sched.Schedule(recordFor(studentID, s.period, frame, section, c))
}

// persist runs when a cell's debounce elapses.
func (s *Store) persist(row database.DraftRecord) {
	err := s.backend.Upsert(context.Background(), row)
	s.noteWriteResult(err)
}

func (s *Store) noteWriteResult(err error) {
	s.mu.Lock()
	if err != nil {
		s.status = SaveStatus{State: SaveError, LastError: err.Error()}
		s.logger.Error("draft write failed", zap.Error(err))
	} else if s.sched.PendingCount() == 0 && s.status.State == SaveSaving {
		s.status = SaveStatus{State: SaveSaved}
	}
	s.mu.Unlock()

	s.notify()
}

// Flush cancels every pending debounce and writes all pending rows
// concurrently, returning once durability is guaranteed.
func (s *Store) Flush(ctx context.Context) error {
	err := s.sched.Flush(ctx, func(ctx context.Context, row database.DraftRecord) error {
		return s.backend.Upsert(ctx, row)
	})

	s.mu.Lock()
	if err != nil {
		s.status = SaveStatus{State: SaveError, LastError: err.Error()}
	} else if s.status.State == SaveSaving {
		s.status = SaveStatus{State: SaveSaved}
	}
	s.mu.Unlock()

	s.notify()
	if err != nil {
		return fmt.Errorf("failed to flush drafts: %w", err)
	}
	return nil
}

// PendingWrites reports how many cells still have a scheduled write.
func (s *Store) PendingWrites() int {
	return s.sched.PendingCount()
}

func recordFor(studentID string, period report.Period, frame report.FrameID, section report.SectionID, c report.CommentDraft) database.DraftRecord {
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
