package report

import "fmt"

// FrameID identifies one of the four developmental frames of the kindergarten
// program.
type FrameID string

const (
	FrameBelonging      FrameID = "belonging_and_contributing"
	FrameSelfRegulation FrameID = "self_regulation_and_well_being"
	FrameLiteracyMath   FrameID = "demonstrating_literacy_and_mathematics_behaviors"
	FrameProblemSolving FrameID = "problem_solving_and_innovating"
)

// SectionID identifies one of the three comment segments within a frame.
type SectionID string

const (
	SectionKey       SectionID = "key_learning"
	SectionGrowth    SectionID = "growth_in_learning"
	SectionNextSteps SectionID = "next_steps_in_learning"
)

// Frame bundles a frame id with its canonical slug and display label.
type Frame struct {
	ID    FrameID
	Slug  string
	Label string
}

// Section bundles a section id with its CSV slug and display label.
type Section struct {
	ID    SectionID
	Slug  string
	Label string
}

var frames = []Frame{
	{ID: FrameBelonging, Slug: "belonging", Label: "Belonging & Contributing"},
	{ID: FrameSelfRegulation, Slug: "self_regulation", Label: "Self-Reg & Well-Being"},
	{ID: FrameLiteracyMath, Slug: "literacy_math", Label: "Literacy & Math"},
	{ID: FrameProblemSolving, Slug: "problem_solving", Label: "Problem Solving"},
}

var sections = []Section{
	{ID: SectionKey, Slug: "key_learning", Label: "Key Learning"},
	{ID: SectionGrowth, Slug: "growth", Label: "Growth in Learning"},
	{ID: SectionNextSteps, Slug: "next_steps", Label: "Next Steps"},
}

// Frames returns the four frames in their fixed export order.
func Frames() []Frame {
	return frames
}

// Sections returns the three sections in their fixed export order.
func Sections() []Section {
	return sections
}

// BoxCount is the number of comment cells per student per period.
func BoxCount() int {
	return len(frames) * len(sections)
}

// ValidFrame reports whether id names a known frame.
func ValidFrame(id FrameID) bool {
	for _, f := range frames {
		if f.ID == id {
			return true
		}
	}
	return false
}

// ValidSection reports whether id names a known section.
func ValidSection(id SectionID) bool {
	for _, s := range sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ValidateCell checks a (frame, section) pair against the fixed grid.
func ValidateCell(frame FrameID, section SectionID) error {
	if !ValidFrame(frame) {
		return fmt.Errorf("unknown frame: %s", frame)
	}
	if !ValidSection(section) {
		return fmt.Errorf("unknown section: %s", section)
	}
	return nil
}

// FrameLabel returns the display label for a frame id, or the raw id when
// unknown.
func FrameLabel(id FrameID) string {
	for _, f := range frames {
		if f.ID == id {
			return f.Label
		}
	}
	return string(id)
}

// SectionLabel returns the display label for a section id, or the raw id when
// unknown.
func SectionLabel(id SectionID) string {
	for _, s := range sections {
		if s.ID == id {
			return s.Label
		}
	}
	return string(id)
}
