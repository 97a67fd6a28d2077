package report

// DraftMeta is the (author, status) pair attached to every comment.
type DraftMeta struct {
	Author Role
	Status Status
}

// MetaOverride carries explicit author/status overrides for a mutation. Nil
// fields leave the corresponding value untouched.
type MetaOverride struct {
	Author *Role
	Status *Status
}

// DefaultStatusFor returns the approval state a freshly authored comment
// receives: teacher drafts are approved immediately, ECE drafts wait for
// review.
func DefaultStatusFor(role Role) Status {
	if role == RoleTeacher {
		return StatusApproved
	}
	return StatusDraft
}

// Normalize computes the author/status pair for a comment mutation. Editing an
// existing comment never reassigns authorship away from its original author;
// only an explicit override changes status without touching author, which is
// how a reviewing teacher approves an ECE comment while the ECE keeps credit.
func Normalize(currentRole Role, existing *DraftMeta, override *MetaOverride) DraftMeta {
	author := currentRole
	if override != nil && override.Author != nil {
		author = *override.Author
	} else if existing != nil && existing.Author != "" {
		author = existing.Author
	}

	status := DefaultStatusFor(author)
	if override != nil && override.Status != nil {
		status = *override.Status
	} else if existing != nil && existing.Status != "" {
		status = existing.Status
	}

	return DraftMeta{Author: author, Status: status}
}
