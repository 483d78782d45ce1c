package core_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"bom-engine/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE bom_alternatives, bom_components, bom_revisions, ecos, eco_sequences, boms, items, users, companies CASCADE;

		INSERT INTO companies (id, company_code, name, base_currency) VALUES (1, '1000', 'Test Fabrication', 'USD');

		INSERT INTO items (company_id, sku, name, category, unit, unit_cost, qty_on_hand) VALUES
		(1, 'RM-STL-001', 'Cold Rolled Steel Sheet 2mm', 'raw_material',        'kg',     95.25, 500),
		(1, 'PC-BRG-010', 'Ball Bearing 6204-2RS',       'purchased_component', 'pieces',  3.40, 1200);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func TestBOMService_CreateSaveReload(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBOMService(pool)
	items := core.NewItemService(pool)
	ctx := context.Background()

	b, err := svc.CreateBOM(ctx, "1000", "Steel Workbench", "WB-100", "alice")
	if err != nil {
		t.Fatalf("CreateBOM: %v", err)
	}
	if b.Status != core.BOMStatusDraft || b.Revision != "A" || b.Version != 1 {
		t.Fatalf("unexpected new BOM state: %s %s v%d", b.Status, b.Revision, b.Version)
	}

	frame, err := b.AddComponent(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateComponent(ctx, frame, core.ComponentPatch{ItemSKU: strPtr("RM-STL-001")}, items); err != nil {
		t.Fatal(err)
	}
	asm, err := b.AddComponent(true)
	if err != nil {
		t.Fatal(err)
	}
	child, err := b.AddSubComponent(asm)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateComponent(ctx, child, core.ComponentPatch{ItemSKU: strPtr("PC-BRG-010"), Quantity: strPtr("4")}, items); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddAlternative(frame); err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateAlternative(ctx, frame, 0, strPtr("PC-BRG-010"), nil, strPtr("interim substitute"), items); err != nil {
		t.Fatal(err)
	}
	if err := b.SetLaborCost("45"); err != nil {
		t.Fatal(err)
	}

	if err := svc.SaveBOM(ctx, b); err != nil {
		t.Fatalf("SaveBOM: %v", err)
	}
	if b.Version != 2 {
		t.Errorf("save must bump version to 2, got %d", b.Version)
	}

	loaded, err := svc.GetBOM(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBOM: %v", err)
	}
	if len(loaded.Components) != 2 {
		t.Fatalf("expected 2 top-level components, got %d", len(loaded.Components))
	}
	lframe := loaded.FindComponent(frame)
	if lframe == nil || lframe.ItemName != "Cold Rolled Steel Sheet 2mm" {
		t.Errorf("resolved component fields lost on reload: %+v", lframe)
	}
	lchild := loaded.FindComponent(child)
	if lchild == nil || lchild.Level != 1 {
		t.Errorf("child row lost or mis-leveled on reload: %+v", lchild)
	}
	if len(loaded.Alternatives[frame]) != 1 {
		t.Errorf("alternative group lost on reload")
	}
	// 95.25 (frame) + 0 (empty assembly row) + labor 45
	if !loaded.TotalCost.Equal(decimal.RequireFromString("140.25")) {
		t.Errorf("expected total 140.25, got %s", loaded.TotalCost)
	}

	// The ref counter must survive the round trip so refs stay unique.
	nextRef, err := loaded.AddComponent(false)
	if err != nil {
		t.Fatal(err)
	}
	if nextRef <= child {
		t.Errorf("ref counter regressed after reload: got %d", nextRef)
	}
}

func TestBOMService_VersionConflict(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBOMService(pool)
	ctx := context.Background()

	b, err := svc.CreateBOM(ctx, "1000", "Conflict Target", "", "alice")
	if err != nil {
		t.Fatal(err)
	}

	// Two sessions load the same version.
	first, err := svc.GetBOM(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.GetBOM(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := first.AddComponent(false); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveBOM(ctx, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	if _, err := second.AddComponent(false); err != nil {
		t.Fatal(err)
	}
	err = svc.SaveBOM(ctx, second)
	if !errors.Is(err, core.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict on stale save, got %v", err)
	}
}

func TestBOMService_CycleDetection(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBOMService(pool)
	ctx := context.Background()

	parent, err := svc.CreateBOM(ctx, "1000", "Gearbox Assembly", "", "alice")
	if err != nil {
		t.Fatal(err)
	}
	childDoc, err := svc.CreateBOM(ctx, "1000", "Gear Train", "", "alice")
	if err != nil {
		t.Fatal(err)
	}

	// parent -> childDoc is fine.
	asm, err := parent.AddComponent(true)
	if err != nil {
		t.Fatal(err)
	}
	if err := parent.UpdateComponent(ctx, asm, core.ComponentPatch{ChildBOM: &childDoc.BOMNumber}, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveBOM(ctx, parent); err != nil {
		t.Fatalf("saving acyclic link failed: %v", err)
	}

	// childDoc -> parent closes the loop and must be rejected at save.
	back, err := childDoc.AddComponent(true)
	if err != nil {
		t.Fatal(err)
	}
	if err := childDoc.UpdateComponent(ctx, back, core.ComponentPatch{ChildBOM: &parent.BOMNumber}, nil); err != nil {
		t.Fatal(err)
	}
	err = svc.SaveBOM(ctx, childDoc)
	if !errors.Is(err, core.ErrCyclicReference) {
		t.Errorf("expected ErrCyclicReference, got %v", err)
	}
}

func TestBOMService_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBOMService(pool)
	ctx := context.Background()

	b, err := svc.CreateBOM(ctx, "1000", "Lifecycle Target", "", "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Release(ctx, b.ID, "carol"); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("release from DRAFT: expected ErrInvalidTransition, got %v", err)
	}

	b, err = svc.SubmitForReview(ctx, b.ID)
	if err != nil {
		t.Fatalf("SubmitForReview: %v", err)
	}
	if b.Status != core.BOMStatusUnderReview {
		t.Errorf("expected UNDER_REVIEW, got %s", b.Status)
	}

	b, err = svc.Release(ctx, b.ID, "carol")
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if b.Status != core.BOMStatusReleased || b.ApprovedBy == nil {
		t.Errorf("release state wrong: %s approved_by=%v", b.Status, b.ApprovedBy)
	}

	// Releasing again is idempotent and keeps the first approver.
	again, err := svc.Release(ctx, b.ID, "dave")
	if err != nil {
		t.Fatalf("repeat Release: %v", err)
	}
	if *again.ApprovedBy != "carol" {
		t.Errorf("repeat release overwrote approver: %s", *again.ApprovedBy)
	}

	// A released document refuses structural saves.
	released, err := svc.GetBOM(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := released.AddComponent(false); !errors.Is(err, core.ErrReleased) {
		t.Errorf("expected ErrReleased editing a released doc, got %v", err)
	}

	b, err = svc.MarkObsolete(ctx, b.ID)
	if err != nil {
		t.Fatalf("MarkObsolete: %v", err)
	}
	if b.Status != core.BOMStatusObsolete {
		t.Errorf("expected OBSOLETE, got %s", b.Status)
	}
}

func TestBOMService_CreateRevision_RaisesECO(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewBOMService(pool)
	ecoSvc := core.NewECOService(pool)
	ctx := context.Background()

	b, err := svc.CreateBOM(ctx, "1000", "Revision Target", "", "alice")
	if err != nil {
		t.Fatal(err)
	}

	// Revising an unreleased document is a hard error.
	if _, err := svc.CreateRevision(ctx, b.ID, "bob", "", ecoSvc); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on DRAFT revision, got %v", err)
	}

	if _, err := svc.SubmitForReview(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Release(ctx, b.ID, "carol"); err != nil {
		t.Fatal(err)
	}

	revised, err := svc.CreateRevision(ctx, b.ID, "bob", "tolerance change", ecoSvc)
	if err != nil {
		t.Fatalf("CreateRevision: %v", err)
	}
	if revised.Revision != "B" {
		t.Errorf("expected revision B, got %s", revised.Revision)
	}
	if revised.Status != core.BOMStatusDraft {
		t.Errorf("revision must reopen the document as DRAFT, got %s", revised.Status)
	}
	if revised.ApprovedBy != nil {
		t.Error("revision must clear the approval stamp")
	}
	if len(revised.RevisionHistory) != 1 || revised.RevisionHistory[0].Revision != "A" {
		t.Errorf("audit trail wrong: %+v", revised.RevisionHistory)
	}

	// The revision raised and posted an ECO with a gapless number.
	ecos, err := ecoSvc.GetECOs(ctx, 1)
	if err != nil {
		t.Fatalf("GetECOs: %v", err)
	}
	if len(ecos) != 1 {
		t.Fatalf("expected 1 ECO, got %d", len(ecos))
	}
	if ecos[0].Status != core.ECOStatusPosted {
		t.Errorf("expected POSTED ECO, got %s", ecos[0].Status)
	}
	if ecos[0].ECONumber == "" {
		t.Error("posted ECO must carry a number")
	}
	t.Logf("ECO number: %s", ecos[0].ECONumber)

	// Revise again: next ECO number follows without a gap.
	if _, err := svc.SubmitForReview(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Release(ctx, b.ID, "carol"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRevision(ctx, b.ID, "bob", "", ecoSvc); err != nil {
		t.Fatal(err)
	}
	ecos, err = ecoSvc.GetECOs(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ecos) != 2 {
		t.Fatalf("expected 2 ECOs, got %d", len(ecos))
	}
	var n1, n2 string
	for _, e := range ecos {
		if n1 == "" {
			n1 = e.ECONumber
		} else {
			n2 = e.ECONumber
		}
	}
	if n1 == n2 {
		t.Errorf("duplicate ECO numbers: %s", n1)
	}
}
