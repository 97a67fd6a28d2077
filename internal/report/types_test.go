package report

import "testing"

func TestCommentDraftCloneIsDeep(t *testing.T) {
	original := CommentDraft{
		TemplateID: "tpl-1",
		Slots:      map[string]string{"evidence": "built a tower"},
		Rendered:   "rendered text",
		Validation: &ValidationResult{Valid: true, Warnings: []string{"short"}},
		Author:     RoleTeacher,
		Status:     StatusApproved,
	}

	clone := original.Clone()
	clone.Slots["evidence"] = "changed"
	clone.Validation.Warnings[0] = "changed"

	if original.Slots["evidence"] != "built a tower" {
		t.Fatalf("clone shares slot map with original")
	}
	if original.Validation.Warnings[0] != "short" {
		t.Fatalf("clone shares validation slices with original")
	}
}

func TestContentEqual(t *testing.T) {
	a := CommentDraft{TemplateID: "tpl", Slots: map[string]string{"x": "1"}}
	b := CommentDraft{TemplateID: "tpl", Slots: map[string]string{"x": "1"}, Rendered: "different"}
	if !ContentEqual(a, b) {
		t.Fatalf("rendered text must not affect content equality")
	}

	b.Slots["x"] = "2"
	if ContentEqual(a, b) {
		t.Fatalf("slot change must break content equality")
	}

	c := CommentDraft{TemplateID: "other", Slots: map[string]string{"x": "1"}}
	if ContentEqual(a, c) {
		t.Fatalf("template change must break content equality")
	}
}

func TestReportDraftCommentOnMissingCell(t *testing.T) {
	d := NewReportDraft("s1", PeriodFebruary)
	got := d.Comment(FrameBelonging, SectionKey)
	if !got.IsEmpty() {
		t.Fatalf("missing cell should read as empty draft: %+v", got)
	}

	var nilDraft *ReportDraft
	if !nilDraft.Comment(FrameBelonging, SectionKey).IsEmpty() {
		t.Fatalf("nil draft should read as empty draft")
	}
}

func TestFixedGrid(t *testing.T) {
	if len(Frames()) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(Frames()))
	}
	if len(Sections()) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(Sections()))
	}
	if BoxCount() != 12 {
		t.Fatalf("expected 12 boxes, got %d", BoxCount())
	}
	if err := ValidateCell(FrameLiteracyMath, SectionGrowth); err != nil {
		t.Fatalf("valid cell rejected: %v", err)
	}
	if err := ValidateCell("bogus", SectionGrowth); err == nil {
		t.Fatalf("unknown frame accepted")
	}
	if err := ValidateCell(FrameBelonging, "bogus"); err == nil {
		t.Fatalf("unknown section accepted")
	}
}
