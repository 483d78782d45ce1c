package core_test

import (
	"testing"
	"time"

	"bom-engine/internal/core"
)

func TestNextRevision(t *testing.T) {
	tests := []struct {
		rev  string
		want string
	}{
		{"A", "B"},
		{"C", "D"},
		{"Y", "Z"},
		{"Z", "Z.1"},
		{"3", "4"},
		{"12", "13"},
		{"A.1", "A.1.1"},
		{"Z.1", "Z.1.1"},
		{"rev-x", "rev-x.1"},
	}
	for _, tt := range tests {
		if got := core.NextRevision(tt.rev); got != tt.want {
			t.Errorf("NextRevision(%q) = %q, want %q", tt.rev, got, tt.want)
		}
	}
}

func TestCreateRevision_AppendsHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := core.NewBillOfMaterials(1, "Workbench", "WB-100", "alice", "USD", now)

	entry := b.CreateRevision("bob", "", now.Add(time.Hour))

	if b.Revision != "B" {
		t.Errorf("expected revision B, got %s", b.Revision)
	}
	if entry.Revision != "A" {
		t.Errorf("history entry must record the superseded label, got %s", entry.Revision)
	}
	if entry.Notes != "Revised to B" {
		t.Errorf("unexpected default notes: %q", entry.Notes)
	}
	if len(b.RevisionHistory) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(b.RevisionHistory))
	}

	// Second bump: history keeps growing, never rewrites.
	b.CreateRevision("bob", "tolerance change", now.Add(2*time.Hour))
	if b.Revision != "C" {
		t.Errorf("expected revision C, got %s", b.Revision)
	}
	if len(b.RevisionHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(b.RevisionHistory))
	}
	if b.RevisionHistory[0].Revision != "A" || b.RevisionHistory[1].Revision != "B" {
		t.Errorf("history out of order: %+v", b.RevisionHistory)
	}
	if b.RevisionHistory[1].Notes != "tolerance change" {
		t.Errorf("explicit notes lost: %q", b.RevisionHistory[1].Notes)
	}
}

func TestStatusTransitions(t *testing.T) {
	now := time.Now()
	b := core.NewBillOfMaterials(1, "Workbench", "", "alice", "USD", now)

	if b.Status != core.BOMStatusDraft {
		t.Fatalf("new BOM must start DRAFT, got %s", b.Status)
	}

	// Release from DRAFT skips review and must fail.
	if err := b.Release("carol", now); err == nil {
		t.Error("expected release from DRAFT to fail")
	}

	if err := b.SubmitForReview(); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	if b.Status != core.BOMStatusUnderReview {
		t.Errorf("expected UNDER_REVIEW, got %s", b.Status)
	}

	// Submitting twice is an error: only DRAFT submits.
	if err := b.SubmitForReview(); err == nil {
		t.Error("expected second submit to fail")
	}

	if err := b.Release("carol", now); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if b.Status != core.BOMStatusReleased {
		t.Errorf("expected RELEASED, got %s", b.Status)
	}
	if b.ApprovedBy == nil || *b.ApprovedBy != "carol" {
		t.Error("release must stamp approved_by")
	}
	firstApproval := *b.ApprovedAt

	// Releasing again is a safe no-op preserving the original approval.
	if err := b.Release("dave", now.Add(time.Hour)); err != nil {
		t.Fatalf("repeat release must be a no-op, got %v", err)
	}
	if *b.ApprovedBy != "carol" || !b.ApprovedAt.Equal(firstApproval) {
		t.Error("repeat release must not overwrite the approval stamp")
	}

	if err := b.MarkObsolete(); err != nil {
		t.Fatalf("MarkObsolete failed: %v", err)
	}
	if b.Status != core.BOMStatusObsolete {
		t.Errorf("expected OBSOLETE, got %s", b.Status)
	}

	// Obsolete documents are terminal.
	if err := b.MarkObsolete(); err == nil {
		t.Error("expected obsolete from OBSOLETE to fail")
	}
	if err := b.SubmitForReview(); err == nil {
		t.Error("expected submit from OBSOLETE to fail")
	}
}
