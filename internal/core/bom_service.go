package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type bomService struct {
	pool *pgxpool.Pool
}

// NewBOMService constructs a BOMService backed by PostgreSQL.
func NewBOMService(pool *pgxpool.Pool) BOMService {
	return &bomService{pool: pool}
}

func (s *bomService) resolveCompany(ctx context.Context, companyCode string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx,
		"SELECT id FROM companies WHERE company_code = $1", companyCode,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("company %s not found", companyCode)
		}
		return 0, fmt.Errorf("resolve company %s: %w", companyCode, err)
	}
	return id, nil
}

// CreateBOM inserts a fresh DRAFT document at revision A with no components.
func (s *bomService) CreateBOM(ctx context.Context, companyCode, name, productSKU, createdBy string) (*BillOfMaterials, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	var currency string
	if err := s.pool.QueryRow(ctx,
		"SELECT base_currency FROM companies WHERE id = $1", companyID,
	).Scan(&currency); err != nil {
		return nil, fmt.Errorf("resolve company currency: %w", err)
	}

	b := NewBillOfMaterials(companyID, name, productSKU, createdBy, currency, time.Now())

	var sku *string
	if b.ProdSKU != "" {
		sku = &b.ProdSKU
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO boms (company_id, bom_number, name, product_sku, revision, status, currency,
		                  next_component_ref, version, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		companyID, b.BOMNumber, b.Name, sku, b.Revision, string(b.Status), b.Currency,
		b.NextComponentRef(), b.Version, createdBy,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert BOM: %w", err)
	}
	return b, nil
}

// GetBOM loads the full aggregate: header, component tree, alternative
// groups, revision history.
func (s *bomService) GetBOM(ctx context.Context, bomID int) (*BillOfMaterials, error) {
	b, err := s.loadHeader(ctx, "b.id = $1", bomID)
	if err != nil {
		return nil, err
	}
	if err := s.loadDetail(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bomService) GetBOMByNumber(ctx context.Context, companyCode, bomNumber string) (*BillOfMaterials, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	b, err := s.loadHeader(ctx, "b.company_id = $1 AND b.bom_number = $2", companyID, bomNumber)
	if err != nil {
		return nil, err
	}
	if err := s.loadDetail(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

const bomHeaderColumns = `
	b.id, b.company_id, b.bom_number, b.name, COALESCE(b.product_sku, ''),
	b.revision, b.status, b.currency,
	b.material_cost, b.material_cost_override, b.labor_cost, b.overhead_cost, b.total_cost,
	b.next_component_ref, b.version, b.created_by, b.approved_by, b.approved_at,
	b.created_at, b.updated_at`

func (s *bomService) loadHeader(ctx context.Context, where string, args ...any) (*BillOfMaterials, error) {
	b := &BillOfMaterials{Alternatives: make(map[int][]AlternativeComponent)}
	var nextRef int
	err := s.pool.QueryRow(ctx,
		"SELECT "+bomHeaderColumns+" FROM boms b WHERE "+where, args...,
	).Scan(
		&b.ID, &b.CompanyID, &b.BOMNumber, &b.Name, &b.ProdSKU,
		&b.Revision, &b.Status, &b.Currency,
		&b.MaterialCost, &b.MaterialCostOverride, &b.LaborCost, &b.OverheadCost, &b.TotalCost,
		&nextRef, &b.Version, &b.CreatedBy, &b.ApprovedBy, &b.ApprovedAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("BOM not found")
		}
		return nil, fmt.Errorf("get BOM: %w", err)
	}
	b.SetNextComponentRef(nextRef)
	return b, nil
}

func (s *bomService) loadDetail(ctx context.Context, b *BillOfMaterials) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, parent_id, component_ref, item_sku, item_name, category, unit,
		       quantity, unit_cost, qty_available, is_assembly, child_bom, level
		FROM bom_components
		WHERE bom_id = $1
		ORDER BY level, position`,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("fetch components for BOM %d: %w", b.ID, err)
	}
	defer rows.Close()

	// Top-level rows arrive before children (ORDER BY level), so parents are
	// indexed before any child looks them up.
	parentIdx := make(map[int]int) // bom_components.id -> index in b.Components
	for rows.Next() {
		var (
			rowID    int
			parentID *int
			c        Component
		)
		if err := rows.Scan(
			&rowID, &parentID, &c.Ref, &c.ItemSKU, &c.ItemName, &c.Category, &c.Unit,
			&c.Quantity, &c.UnitCost, &c.QtyAvailable, &c.IsAssembly, &c.ChildBOM, &c.Level,
		); err != nil {
			return fmt.Errorf("scan component: %w", err)
		}
		if parentID == nil {
			b.Components = append(b.Components, c)
			parentIdx[rowID] = len(b.Components) - 1
			continue
		}
		idx, ok := parentIdx[*parentID]
		if !ok {
			return fmt.Errorf("component %d references missing parent row %d", c.Ref, *parentID)
		}
		b.Components[idx].Children = append(b.Components[idx].Children, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate components: %w", err)
	}

	altRows, err := s.pool.Query(ctx, `
		SELECT component_ref, item_sku, item_name, cost, notes
		FROM bom_alternatives
		WHERE bom_id = $1
		ORDER BY component_ref, position`,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("fetch alternatives for BOM %d: %w", b.ID, err)
	}
	defer altRows.Close()
	for altRows.Next() {
		var ref int
		var a AlternativeComponent
		if err := altRows.Scan(&ref, &a.ItemSKU, &a.ItemName, &a.Cost, &a.Notes); err != nil {
			return fmt.Errorf("scan alternative: %w", err)
		}
		b.Alternatives[ref] = append(b.Alternatives[ref], a)
	}
	if err := altRows.Err(); err != nil {
		return fmt.Errorf("iterate alternatives: %w", err)
	}

	revRows, err := s.pool.Query(ctx, `
		SELECT revision, revised_at, revised_by, notes
		FROM bom_revisions
		WHERE bom_id = $1
		ORDER BY id`,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("fetch revision history for BOM %d: %w", b.ID, err)
	}
	defer revRows.Close()
	for revRows.Next() {
		var e RevisionEntry
		if err := revRows.Scan(&e.Revision, &e.RevisedAt, &e.RevisedBy, &e.Notes); err != nil {
			return fmt.Errorf("scan revision entry: %w", err)
		}
		b.RevisionHistory = append(b.RevisionHistory, e)
	}
	return revRows.Err()
}

// ListBOMs returns headers for a company, optionally filtered by status.
func (s *bomService) ListBOMs(ctx context.Context, companyCode string, status string) ([]BillOfMaterials, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + bomHeaderColumns + " FROM boms b WHERE b.company_id = $1"
	args := []any{companyID}
	if status != "" {
		query += " AND b.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY b.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list BOMs: %w", err)
	}
	defer rows.Close()

	var boms []BillOfMaterials
	for rows.Next() {
		var b BillOfMaterials
		var nextRef int
		if err := rows.Scan(
			&b.ID, &b.CompanyID, &b.BOMNumber, &b.Name, &b.ProdSKU,
			&b.Revision, &b.Status, &b.Currency,
			&b.MaterialCost, &b.MaterialCostOverride, &b.LaborCost, &b.OverheadCost, &b.TotalCost,
			&nextRef, &b.Version, &b.CreatedBy, &b.ApprovedBy, &b.ApprovedAt,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan BOM: %w", err)
		}
		b.SetNextComponentRef(nextRef)
		boms = append(boms, b)
	}
	return boms, rows.Err()
}

// SaveBOM writes the aggregate back under the optimistic version check. The
// stored header is locked and compared to b.Version; a mismatch means another
// session saved first and the caller must reload. Sub-assembly links are
// walked for cycles before any row changes.
func (s *bomService) SaveBOM(ctx context.Context, b *BillOfMaterials) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var storedVersion int
	var storedStatus string
	if err := tx.QueryRow(ctx,
		"SELECT version, status FROM boms WHERE id = $1 FOR UPDATE", b.ID,
	).Scan(&storedVersion, &storedStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("BOM %d not found", b.ID)
		}
		return fmt.Errorf("lock BOM %d: %w", b.ID, err)
	}
	if storedVersion != b.Version {
		return fmt.Errorf("BOM %d: loaded version %d, stored version %d: %w",
			b.ID, b.Version, storedVersion, ErrVersionConflict)
	}

	if err := checkCycles(ctx, tx, b); err != nil {
		return err
	}

	b.Recalculate()
	b.Touch(time.Now())

	var sku *string
	if b.ProdSKU != "" {
		sku = &b.ProdSKU
	}
	tag, err := tx.Exec(ctx, `
		UPDATE boms
		SET name = $1, product_sku = $2, revision = $3, status = $4,
		    material_cost = $5, material_cost_override = $6,
		    labor_cost = $7, overhead_cost = $8, total_cost = $9,
		    next_component_ref = $10, version = version + 1,
		    approved_by = $11, approved_at = $12, updated_at = NOW()
		WHERE id = $13 AND version = $14`,
		b.Name, sku, b.Revision, string(b.Status),
		b.MaterialCost, b.MaterialCostOverride,
		b.LaborCost, b.OverheadCost, b.TotalCost,
		b.NextComponentRef(),
		b.ApprovedBy, b.ApprovedAt,
		b.ID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("update BOM %d: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("BOM %d: %w", b.ID, ErrVersionConflict)
	}

	// Rewrite detail rows wholesale. Component identity lives in
	// component_ref, so dropping and reinserting the rows is safe.
	if _, err := tx.Exec(ctx, "DELETE FROM bom_components WHERE bom_id = $1", b.ID); err != nil {
		return fmt.Errorf("clear components for BOM %d: %w", b.ID, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM bom_alternatives WHERE bom_id = $1", b.ID); err != nil {
		return fmt.Errorf("clear alternatives for BOM %d: %w", b.ID, err)
	}

	for pos := range b.Components {
		c := &b.Components[pos]
		var rowID int
		if err := tx.QueryRow(ctx, `
			INSERT INTO bom_components (bom_id, parent_id, component_ref, position,
			                            item_sku, item_name, category, unit,
			                            quantity, unit_cost, qty_available,
			                            is_assembly, child_bom, level)
			VALUES ($1, NULL, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id`,
			b.ID, c.Ref, pos,
			c.ItemSKU, c.ItemName, c.Category, c.Unit,
			c.Quantity, c.UnitCost, c.QtyAvailable,
			c.IsAssembly, c.ChildBOM, c.Level,
		).Scan(&rowID); err != nil {
			return fmt.Errorf("insert component %d: %w", c.Ref, err)
		}
		for childPos := range c.Children {
			ch := &c.Children[childPos]
			if _, err := tx.Exec(ctx, `
				INSERT INTO bom_components (bom_id, parent_id, component_ref, position,
				                            item_sku, item_name, category, unit,
				                            quantity, unit_cost, qty_available,
				                            is_assembly, child_bom, level)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
				b.ID, rowID, ch.Ref, childPos,
				ch.ItemSKU, ch.ItemName, ch.Category, ch.Unit,
				ch.Quantity, ch.UnitCost, ch.QtyAvailable,
				ch.IsAssembly, ch.ChildBOM, ch.Level,
			); err != nil {
				return fmt.Errorf("insert sub-component %d: %w", ch.Ref, err)
			}
		}
	}

	for ref, group := range b.Alternatives {
		for pos, a := range group {
			if _, err := tx.Exec(ctx, `
				INSERT INTO bom_alternatives (bom_id, component_ref, position, item_sku, item_name, cost, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				b.ID, ref, pos, a.ItemSKU, a.ItemName, a.Cost, a.Notes,
			); err != nil {
				return fmt.Errorf("insert alternative for component %d: %w", ref, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit BOM %d: %w", b.ID, err)
	}
	b.Version++
	return nil
}

// checkCycles walks the sub-assembly graph breadth-first from this document's
// child links. Reaching the document's own number means the save would create
// a cycle.
func checkCycles(ctx context.Context, tx pgx.Tx, b *BillOfMaterials) error {
	var frontier []string
	seen := make(map[string]bool)
	b.walk(func(c *Component) {
		if c.IsAssembly && c.ChildBOM != "" && !seen[c.ChildBOM] {
			seen[c.ChildBOM] = true
			frontier = append(frontier, c.ChildBOM)
		}
	})

	for len(frontier) > 0 {
		for _, num := range frontier {
			if num == b.BOMNumber {
				return fmt.Errorf("%s reachable from its own components: %w", b.BOMNumber, ErrCyclicReference)
			}
		}
		rows, err := tx.Query(ctx, `
			SELECT DISTINCT bc.child_bom
			FROM bom_components bc
			JOIN boms parent ON parent.id = bc.bom_id
			WHERE parent.company_id = $1
			  AND parent.bom_number = ANY($2)
			  AND bc.is_assembly AND bc.child_bom <> ''`,
			b.CompanyID, frontier,
		)
		if err != nil {
			return fmt.Errorf("walk sub-assembly graph: %w", err)
		}
		var next []string
		for rows.Next() {
			var num string
			if err := rows.Scan(&num); err != nil {
				rows.Close()
				return fmt.Errorf("scan sub-assembly link: %w", err)
			}
			if !seen[num] {
				seen[num] = true
				next = append(next, num)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("walk sub-assembly graph: %w", err)
		}
		frontier = next
	}
	return nil
}

// SubmitForReview transitions DRAFT → UNDER_REVIEW.
func (s *bomService) SubmitForReview(ctx context.Context, bomID int) (*BillOfMaterials, error) {
	return s.transition(ctx, bomID, func(b *BillOfMaterials) error {
		return b.SubmitForReview()
	})
}

// Release transitions UNDER_REVIEW → RELEASED, stamping approval once.
// Releasing an already-RELEASED document is a no-op.
func (s *bomService) Release(ctx context.Context, bomID int, approvedBy string) (*BillOfMaterials, error) {
	return s.transition(ctx, bomID, func(b *BillOfMaterials) error {
		return b.Release(approvedBy, time.Now())
	})
}

// MarkObsolete transitions RELEASED → OBSOLETE.
func (s *bomService) MarkObsolete(ctx context.Context, bomID int) (*BillOfMaterials, error) {
	return s.transition(ctx, bomID, func(b *BillOfMaterials) error {
		return b.MarkObsolete()
	})
}

func (s *bomService) transition(ctx context.Context, bomID int, apply func(*BillOfMaterials) error) (*BillOfMaterials, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &BillOfMaterials{ID: bomID}
	if err := tx.QueryRow(ctx,
		"SELECT status, approved_by, approved_at, version FROM boms WHERE id = $1 FOR UPDATE", bomID,
	).Scan(&b.Status, &b.ApprovedBy, &b.ApprovedAt, &b.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("BOM %d not found", bomID)
		}
		return nil, fmt.Errorf("lock BOM %d: %w", bomID, err)
	}

	if err := apply(b); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE boms
		SET status = $1, approved_by = $2, approved_at = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4`,
		string(b.Status), b.ApprovedBy, b.ApprovedAt, bomID,
	); err != nil {
		return nil, fmt.Errorf("update BOM %d status: %w", bomID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}
	return s.GetBOM(ctx, bomID)
}

// CreateRevision bumps a RELEASED document to the next revision label,
// records the superseded label in the audit trail, reopens the document as
// DRAFT with approval cleared, and raises a posted ECO — all atomically.
func (s *bomService) CreateRevision(ctx context.Context, bomID int, by, notes string, ecoSvc ECOService) (*BillOfMaterials, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var companyID int
	var bomNumber, revision, status string
	if err := tx.QueryRow(ctx,
		"SELECT company_id, bom_number, revision, status FROM boms WHERE id = $1 FOR UPDATE", bomID,
	).Scan(&companyID, &bomNumber, &revision, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("BOM %d not found", bomID)
		}
		return nil, fmt.Errorf("lock BOM %d: %w", bomID, err)
	}

	if status != string(BOMStatusReleased) {
		return nil, fmt.Errorf("revise from %s: %w", status, ErrInvalidTransition)
	}

	next := NextRevision(revision)
	if notes == "" {
		notes = fmt.Sprintf("Revised to %s", next)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO bom_revisions (bom_id, revision, revised_by, notes)
		VALUES ($1, $2, $3, $4)`,
		bomID, revision, by, notes,
	); err != nil {
		return nil, fmt.Errorf("record revision history: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE boms
		SET revision = $1, status = 'DRAFT', approved_by = NULL, approved_at = NULL,
		    version = version + 1, updated_at = NOW()
		WHERE id = $2`,
		next, bomID,
	); err != nil {
		return nil, fmt.Errorf("advance revision for BOM %d: %w", bomID, err)
	}

	// Raise the change order inside this transaction so the revision and its
	// ECO appear together or not at all.
	var ecoID int
	key := fmt.Sprintf("bom-%d-rev-%s", bomID, next)
	if err := tx.QueryRow(ctx, `
		INSERT INTO ecos (company_id, bom_id, status, summary, idempotency_key, created_by)
		VALUES ($1, $2, 'DRAFT', $3, $4, $5)
		RETURNING id`,
		companyID, bomID,
		fmt.Sprintf("%s revised %s -> %s", bomNumber, revision, next),
		key, by,
	).Scan(&ecoID); err != nil {
		return nil, fmt.Errorf("raise ECO for revision: %w", err)
	}
	if err := ecoSvc.PostECOTx(ctx, tx, ecoID); err != nil {
		return nil, fmt.Errorf("post ECO for revision: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit revision: %w", err)
	}
	return s.GetBOM(ctx, bomID)
}
