package core

import (
	"fmt"
	"strconv"
	"time"
)

// NextRevision derives the label that follows the given one.
//
//	single letter A..Y  -> next letter
//	"Z"                 -> "Z.1" (letters are exhausted, fall to dotted form)
//	all digits          -> incremented number
//	anything else       -> label + ".1"
func NextRevision(rev string) string {
	if len(rev) == 1 && rev[0] >= 'A' && rev[0] <= 'Y' {
		return string(rev[0] + 1)
	}
	if n, err := strconv.Atoi(rev); err == nil {
		return strconv.Itoa(n + 1)
	}
	return rev + ".1"
}

// CreateRevision advances the document to the next revision label and appends
// the superseded label to the audit trail. Status is untouched here; the
// persisted lifecycle (reopening as DRAFT, clearing approval, raising an ECO)
// belongs to BOMService.CreateRevision.
func (b *BillOfMaterials) CreateRevision(by, notes string, now time.Time) RevisionEntry {
	next := NextRevision(b.Revision)
	if notes == "" {
		notes = fmt.Sprintf("Revised to %s", next)
	}
	entry := RevisionEntry{
		Revision:  b.Revision,
		RevisedAt: now,
		RevisedBy: by,
		Notes:     notes,
	}
	b.RevisionHistory = append(b.RevisionHistory, entry)
	b.Revision = next
	b.UpdatedAt = now
	return entry
}

// SubmitForReview moves DRAFT to UNDER_REVIEW.
func (b *BillOfMaterials) SubmitForReview() error {
	if b.Status != BOMStatusDraft {
		return fmt.Errorf("submit from %s: %w", b.Status, ErrInvalidTransition)
	}
	b.Status = BOMStatusUnderReview
	return nil
}

// Release moves UNDER_REVIEW to RELEASED and stamps approval. Releasing an
// already-released document is a no-op so retries are safe; the original
// approval stamp is preserved.
func (b *BillOfMaterials) Release(approvedBy string, now time.Time) error {
	if b.Status == BOMStatusReleased {
		return nil
	}
	if b.Status != BOMStatusUnderReview {
		return fmt.Errorf("release from %s: %w", b.Status, ErrInvalidTransition)
	}
	b.Status = BOMStatusReleased
	b.ApprovedBy = &approvedBy
	t := now
	b.ApprovedAt = &t
	return nil
}

// MarkObsolete moves RELEASED to OBSOLETE.
func (b *BillOfMaterials) MarkObsolete() error {
	if b.Status != BOMStatusReleased {
		return fmt.Errorf("obsolete from %s: %w", b.Status, ErrInvalidTransition)
	}
	b.Status = BOMStatusObsolete
	return nil
}
