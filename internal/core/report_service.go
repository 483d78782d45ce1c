package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CostBreakdownLine is one component's contribution to a BOM's material cost.
type CostBreakdownLine struct {
	Ref          int             `json:"ref"`
	ItemSKU      string          `json:"item_sku"`
	ItemName     string          `json:"item_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ExtendedCost decimal.Decimal `json:"extended_cost"`
	SharePercent decimal.Decimal `json:"share_percent"`
}

// CostBreakdown is the full cost picture for one BOM revision.
type CostBreakdown struct {
	BOMNumber    string              `json:"bom_number"`
	Revision     string              `json:"revision"`
	Currency     string              `json:"currency"`
	Lines        []CostBreakdownLine `json:"lines"`
	MaterialCost decimal.Decimal     `json:"material_cost"`
	Overridden   bool                `json:"material_cost_overridden"`
	LaborCost    decimal.Decimal     `json:"labor_cost"`
	OverheadCost decimal.Decimal     `json:"overhead_cost"`
	TotalCost    decimal.Decimal     `json:"total_cost"`
}

// WhereUsedEntry names one BOM that consumes a given SKU, either directly on
// a component row or as an alternative.
type WhereUsedEntry struct {
	BOMNumber     string          `json:"bom_number"`
	BOMName       string          `json:"bom_name"`
	Revision      string          `json:"revision"`
	Status        BOMStatus       `json:"status"`
	Quantity      decimal.Decimal `json:"quantity"`
	AsAlternative bool            `json:"as_alternative"`
}

// ReportService answers read-only questions across the BOM catalog.
type ReportService interface {
	// CostBreakdown itemizes a BOM's material cost by top-level component,
	// with each line's share of the computed sum.
	CostBreakdown(ctx context.Context, bomID int) (*CostBreakdown, error)
	// WhereUsed lists every BOM in a company that references the SKU, on a
	// component row or in an alternative group.
	WhereUsed(ctx context.Context, companyCode, sku string) ([]WhereUsedEntry, error)
}

type reportService struct {
	pool   *pgxpool.Pool
	bomSvc BOMService
}

func NewReportService(pool *pgxpool.Pool, bomSvc BOMService) ReportService {
	return &reportService{pool: pool, bomSvc: bomSvc}
}

func (s *reportService) CostBreakdown(ctx context.Context, bomID int) (*CostBreakdown, error) {
	b, err := s.bomSvc.GetBOM(ctx, bomID)
	if err != nil {
		return nil, err
	}

	computed := b.ComputedMaterialCost()
	hundred := decimal.NewFromInt(100)

	out := &CostBreakdown{
		BOMNumber:    b.BOMNumber,
		Revision:     b.Revision,
		Currency:     b.Currency,
		MaterialCost: b.MaterialCost,
		Overridden:   b.MaterialCostOverride != nil,
		LaborCost:    b.LaborCost,
		OverheadCost: b.OverheadCost,
		TotalCost:    b.TotalCost,
	}
	for i := range b.Components {
		c := &b.Components[i]
		ext := c.ExtendedCost()
		share := decimal.Zero
		if !computed.IsZero() {
			share = ext.Div(computed).Mul(hundred).Round(2)
		}
		out.Lines = append(out.Lines, CostBreakdownLine{
			Ref:          c.Ref,
			ItemSKU:      c.ItemSKU,
			ItemName:     c.DisplayName(),
			Quantity:     c.Quantity,
			UnitCost:     c.UnitCost,
			ExtendedCost: ext,
			SharePercent: share,
		})
	}
	return out, nil
}

func (s *reportService) WhereUsed(ctx context.Context, companyCode, sku string) ([]WhereUsedEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.bom_number, b.name, b.revision, b.status, bc.quantity, false
		FROM bom_components bc
		JOIN boms b ON b.id = bc.bom_id
		JOIN companies c ON c.id = b.company_id
		WHERE c.company_code = $1 AND bc.item_sku = $2
		UNION ALL
		SELECT b.bom_number, b.name, b.revision, b.status, 0, true
		FROM bom_alternatives ba
		JOIN boms b ON b.id = ba.bom_id
		JOIN companies c ON c.id = b.company_id
		WHERE c.company_code = $1 AND ba.item_sku = $2
		ORDER BY 1, 6`,
		companyCode, sku,
	)
	if err != nil {
		return nil, fmt.Errorf("where-used query for %s: %w", sku, err)
	}
	defer rows.Close()

	var entries []WhereUsedEntry
	for rows.Next() {
		var e WhereUsedEntry
		if err := rows.Scan(&e.BOMNumber, &e.BOMName, &e.Revision, &e.Status, &e.Quantity, &e.AsAlternative); err != nil {
			return nil, fmt.Errorf("scan where-used row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
