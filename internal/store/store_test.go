package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/report"
)

type fakeBackend struct {
	mu       sync.Mutex
	writes   []database.DraftRecord
	byPeriod map[report.Period]map[string]*report.ReportDraft
	failWith error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{byPeriod: make(map[report.Period]map[string]*report.ReportDraft)}
}

func (b *fakeBackend) ListByPeriod(ctx context.Context, period report.Period) (map[string]*report.ReportDraft, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]*report.ReportDraft)
	for id, d := range b.byPeriod[period] {
		out[id] = d.Clone()
	}
	return out, nil
}

func (b *fakeBackend) Upsert(ctx context.Context, record database.DraftRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.writes = append(b.writes, record)
	return nil
}

func (b *fakeBackend) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

func (b *fakeBackend) lastWrite() database.DraftRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes[len(b.writes)-1]
}

func (b *fakeBackend) setFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}

type fakeRoster struct {
	students []report.Student
}

func (r *fakeRoster) List(ctx context.Context) ([]report.Student, error) {
	return append([]report.Student(nil), r.students...), nil
}

// fakeClock drives history coalescing deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, backend *fakeBackend, opts ...Option) *Store {
	t.Helper()
	base := []Option{WithDebounce(time.Hour)}
	return New(backend, &fakeRoster{}, append(base, opts...)...)
}

func slotPatch(slots map[string]string) CommentPatch {
	return CommentPatch{Slots: slots}
}

func TestUpdateCommentDefaultsByRole(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "x"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	c := s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if c.Author != report.RoleTeacher || c.Status != report.StatusApproved {
		t.Fatalf("teacher edit = %s/%s, want teacher/approved", c.Author, c.Status)
	}

	if err := s.SetRole(report.RoleECE); err != nil {
		t.Fatalf("SetRole error: %v", err)
	}
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionGrowth, slotPatch(map[string]string{"evidence": "y"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	c = s.Comment("s1", report.FrameBelonging, report.SectionGrowth)
	if c.Author != report.RoleECE || c.Status != report.StatusDraft {
		t.Fatalf("ece edit = %s/%s, want ece/draft", c.Author, c.Status)
	}
}

func TestEditNeverReassignsAuthor(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	if err := s.SetRole(report.RoleECE); err != nil {
		t.Fatalf("SetRole error: %v", err)
	}
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "builds"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	// A teacher editing the ECE's comment keeps the ECE as author.
	if err := s.SetRole(report.RoleTeacher); err != nil {
		t.Fatalf("SetRole error: %v", err)
	}
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "builds towers"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	c := s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if c.Author != report.RoleECE {
		t.Fatalf("author = %s, want ece", c.Author)
	}
	if c.Status != report.StatusDraft {
		t.Fatalf("status = %s, want draft", c.Status)
	}
}

func TestApproveKeepsAuthor(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	if err := s.SetRole(report.RoleECE); err != nil {
		t.Fatalf("SetRole error: %v", err)
	}
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "builds"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	if err := s.SetRole(report.RoleTeacher); err != nil {
		t.Fatalf("SetRole error: %v", err)
	}
	if err := s.ApproveComment("s1", report.FrameBelonging, report.SectionKey); err != nil {
		t.Fatalf("ApproveComment error: %v", err)
	}

	c := s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if c.Author != report.RoleECE {
		t.Fatalf("author = %s, want ece", c.Author)
	}
	if c.Status != report.StatusApproved {
		t.Fatalf("status = %s, want approved", c.Status)
	}
}

func TestApproveDoesNotAddHistory(t *testing.T) {
	backend := newFakeBackend()
	clock := newFakeClock()
	s := newTestStore(t, backend, WithClock(clock.Now))

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "x"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := s.ApproveComment("s1", report.FrameBelonging, report.SectionKey); err != nil {
		t.Fatalf("ApproveComment error: %v", err)
	}

	if got := s.UndoDepth(); got != 1 {
		t.Fatalf("undo depth = %d, want 1", got)
	}
}

func TestCoalescingProducesOneUndoStep(t *testing.T) {
	backend := newFakeBackend()
	clock := newFakeClock()
	s := newTestStore(t, backend, WithClock(clock.Now))

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "bui"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	clock.Advance(300 * time.Millisecond)
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "builds towers"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	if got := s.UndoDepth(); got != 1 {
		t.Fatalf("undo depth = %d, want 1", got)
	}

	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	c := s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if !c.IsEmpty() {
		t.Fatalf("expected pre-first-edit state after undo, got %+v", c)
	}

	if !s.Redo() {
		t.Fatal("Redo returned false")
	}
	c = s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if c.Slots["evidence"] != "builds towers" {
		t.Fatalf("expected post-second-edit state after redo, got %+v", c)
	}
}

func TestEditsOutsideWindowAreSeparateSteps(t *testing.T) {
	backend := newFakeBackend()
	clock := newFakeClock()
	s := newTestStore(t, backend, WithClock(clock.Now))

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "a"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	clock.Advance(2 * time.Second)
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "b"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	if got := s.UndoDepth(); got != 2 {
		t.Fatalf("undo depth = %d, want 2", got)
	}
}

func TestUndoRedoRestoresIdenticalContent(t *testing.T) {
	backend := newFakeBackend()
	clock := newFakeClock()
	s := newTestStore(t, backend, WithClock(clock.Now))

	rendered := "Maria builds towers with friends."
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, CommentPatch{
		TemplateID: strPtr("tpl-1"),
		Slots:      map[string]string{"evidence": "builds towers"},
		Rendered:   &rendered,
		Validation: &report.ValidationResult{Valid: true, Warnings: []string{"short"}},
	}); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	want := s.Comment("s1", report.FrameBelonging, report.SectionKey)

	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if !s.Redo() {
		t.Fatal("Redo returned false")
	}

	got := s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("redo state = %+v, want %+v", got, want)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	backend := newFakeBackend()
	clock := newFakeClock()
	s := newTestStore(t, backend, WithClock(clock.Now))

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "a"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if got := s.RedoDepth(); got != 1 {
		t.Fatalf("redo depth = %d, want 1", got)
	}

	clock.Advance(2 * time.Second)
	if err := s.UpdateComment("s2", report.FrameLiteracyMath, report.SectionNextSteps, slotPatch(map[string]string{"next": "read aloud"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if got := s.RedoDepth(); got != 0 {
		t.Fatalf("redo depth after new edit = %d, want 0", got)
	}
}

func TestHistoryCapDropsOldest(t *testing.T) {
	backend := newFakeBackend()
	clock := newFakeClock()
	s := newTestStore(t, backend, WithClock(clock.Now), WithHistoryCap(2))

	cells := []report.SectionID{report.SectionKey, report.SectionGrowth, report.SectionNextSteps}
	for i, section := range cells {
		if err := s.UpdateComment("s1", report.FrameBelonging, section, slotPatch(map[string]string{"evidence": string(rune('a' + i))})); err != nil {
			t.Fatalf("UpdateComment error: %v", err)
		}
		clock.Advance(2 * time.Second)
	}

	if got := s.UndoDepth(); got != 2 {
		t.Fatalf("undo depth = %d, want 2", got)
	}

	// Undoing everything must stop at the capped boundary: the first edit is
	// gone and its cell stays populated.
	for s.Undo() {
	}
	if c := s.Comment("s1", report.FrameBelonging, report.SectionKey); c.IsEmpty() {
		t.Fatal("oldest edit should have been dropped from history, not reverted")
	}
	if c := s.Comment("s1", report.FrameBelonging, report.SectionNextSteps); !c.IsEmpty() {
		t.Fatalf("expected newest edits reverted, got %+v", c)
	}
}

func TestDebounceCancelAndReplace(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend, &fakeRoster{}, WithDebounce(30*time.Millisecond))

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "first"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "second"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for backend.writeCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced write never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Give a stale timer a chance to misfire.
	time.Sleep(60 * time.Millisecond)

	if got := backend.writeCount(); got != 1 {
		t.Fatalf("write count = %d, want 1", got)
	}
	if got := backend.lastWrite().SlotValues["evidence"]; got != "second" {
		t.Fatalf("persisted value = %q, want the latest edit", got)
	}
	if status := s.SaveStatus(); status.State != SaveSaved {
		t.Fatalf("save status = %s, want saved", status.State)
	}
}

func TestFlushWritesAllPending(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "a"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if err := s.UpdateComment("s2", report.FrameProblemSolving, report.SectionGrowth, slotPatch(map[string]string{"evidence": "b"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if got := s.PendingWrites(); got != 2 {
		t.Fatalf("pending writes = %d, want 2", got)
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if got := backend.writeCount(); got != 2 {
		t.Fatalf("write count = %d, want 2", got)
	}
	if got := s.PendingWrites(); got != 0 {
		t.Fatalf("pending writes after flush = %d, want 0", got)
	}
	if status := s.SaveStatus(); status.State != SaveSaved {
		t.Fatalf("save status = %s, want saved", status.State)
	}
}

func TestWriteFailureSetsErrorStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.setFailure(errors.New("disk full"))
	s := newTestStore(t, backend)

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "a"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if err := s.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}

	status := s.SaveStatus()
	if status.State != SaveError {
		t.Fatalf("save status = %s, want error", status.State)
	}
	if status.LastError == "" {
		t.Fatal("expected last error to be recorded")
	}

	// The next edit and flush is the retry path.
	backend.setFailure(nil)
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "ab"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if status := s.SaveStatus(); status.State != SaveSaved {
		t.Fatalf("save status = %s, want saved", status.State)
	}
}

func TestReplayReschedulesPersistence(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "typed"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if got := backend.writeCount(); got != 1 {
		t.Fatalf("write count = %d, want 1", got)
	}

	// Undo replays through the mutation path, so it arms a fresh write.
	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if got := s.PendingWrites(); got != 1 {
		t.Fatalf("pending writes after undo = %d, want 1", got)
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	last := backend.lastWrite()
	if len(last.SlotValues) != 0 {
		t.Fatalf("undo should persist the before state, got %+v", last.SlotValues)
	}
}

func TestSetPeriodReplacesDraftsAndClearsHistory(t *testing.T) {
	backend := newFakeBackend()

	feb := report.NewReportDraft("s1", report.PeriodFebruary)
	feb.SetComment(report.FrameBelonging, report.SectionKey, report.CommentDraft{
		Slots: map[string]string{"evidence": "feb"}, Author: report.RoleTeacher, Status: report.StatusApproved,
	})
	backend.byPeriod[report.PeriodFebruary] = map[string]*report.ReportDraft{"s1": feb}

	june := report.NewReportDraft("s1", report.PeriodJune)
	june.SetComment(report.FrameBelonging, report.SectionKey, report.CommentDraft{
		Slots: map[string]string{"evidence": "june"}, Author: report.RoleTeacher, Status: report.StatusApproved,
	})
	backend.byPeriod[report.PeriodJune] = map[string]*report.ReportDraft{"s1": june}

	s := newTestStore(t, backend)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionGrowth, slotPatch(map[string]string{"evidence": "x"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if s.UndoDepth() != 0 || s.RedoDepth() != 1 {
		t.Fatalf("unexpected history depths: undo=%d redo=%d", s.UndoDepth(), s.RedoDepth())
	}

	if err := s.SetPeriod(context.Background(), report.PeriodJune); err != nil {
		t.Fatalf("SetPeriod error: %v", err)
	}

	if s.UndoDepth() != 0 || s.RedoDepth() != 0 {
		t.Fatal("expected both history stacks cleared on period switch")
	}
	c := s.Comment("s1", report.FrameBelonging, report.SectionKey)
	if c.Slots["evidence"] != "june" {
		t.Fatalf("expected june drafts after switch, got %+v", c.Slots)
	}
	if got := s.Comment("s1", report.FrameBelonging, report.SectionGrowth); !got.IsEmpty() {
		t.Fatalf("expected february-only cell to be gone, got %+v", got)
	}
}

func TestSubscribersNotified(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	var mu sync.Mutex
	calls := 0
	unsubscribe := s.Subscribe(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "a"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	mu.Lock()
	after := calls
	mu.Unlock()
	if after == 0 {
		t.Fatal("expected subscriber to be notified")
	}

	unsubscribe()
	if err := s.UpdateComment("s1", report.FrameBelonging, report.SectionKey, slotPatch(map[string]string{"evidence": "ab"})); err != nil {
		t.Fatalf("UpdateComment error: %v", err)
	}
	mu.Lock()
	final := calls
	mu.Unlock()
	if final != after {
		t.Fatalf("expected no notifications after unsubscribe, got %d extra", final-after)
	}
}

func TestUpdateCommentRejectsUnknownCell(t *testing.T) {
	backend := newFakeBackend()
	s := newTestStore(t, backend)

	if err := s.UpdateComment("s1", report.FrameID("nope"), report.SectionKey, slotPatch(nil)); err == nil {
		t.Fatal("expected error for unknown frame")
	}
}

func strPtr(s string) *string { return &s }
