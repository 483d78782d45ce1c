// restore-seed is a one-shot tool to restore the demo seed data.
// Run it when the item master or company row has been accidentally wiped.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"
	"os"

	"bom-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Clearing test BOM data...")
	_, err = tx.Exec(ctx, `
		DELETE FROM bom_alternatives WHERE bom_id IN (
			SELECT id FROM boms WHERE company_id IN (
				SELECT id FROM companies WHERE company_code = '1000'
			)
		);
		DELETE FROM bom_components WHERE bom_id IN (
			SELECT id FROM boms WHERE company_id IN (
				SELECT id FROM companies WHERE company_code = '1000'
			)
		);
		DELETE FROM bom_revisions WHERE bom_id IN (
			SELECT id FROM boms WHERE company_id IN (
				SELECT id FROM companies WHERE company_code = '1000'
			)
		);
		DELETE FROM ecos WHERE company_id IN (
			SELECT id FROM companies WHERE company_code = '1000'
		);
		DELETE FROM eco_sequences WHERE company_id IN (
			SELECT id FROM companies WHERE company_code = '1000'
		);
		DELETE FROM boms WHERE company_id IN (
			SELECT id FROM companies WHERE company_code = '1000'
		);
	`)
	if err != nil {
		log.Fatalf("Failed to clear BOM data: %v", err)
	}

	log.Println("Restoring company...")
	_, err = tx.Exec(ctx, `
		INSERT INTO companies (company_code, name, base_currency)
		VALUES ('1000', 'Meridian Fabrication Co.', 'USD')
		ON CONFLICT (company_code) DO UPDATE
		  SET name = EXCLUDED.name,
		      base_currency = EXCLUDED.base_currency;
	`)
	if err != nil {
		log.Fatalf("Failed to restore company: %v", err)
	}

	log.Println("Restoring item master...")
	_, err = tx.Exec(ctx, `
		INSERT INTO items (company_id, sku, name, category, unit, unit_cost, qty_on_hand)
		SELECT c.id, i.sku, i.name, i.category, i.unit, i.unit_cost::numeric, i.qty_on_hand::numeric
		FROM companies c
		CROSS JOIN (VALUES
		    ('RM-STL-001', 'Cold Rolled Steel Sheet 2mm', 'raw_material',        'kg',     '95.25', '500'),
		    ('RM-ALU-002', 'Aluminium Extrusion 40x40',   'raw_material',        'meters', '12.85', '320'),
		    ('PC-BRG-010', 'Ball Bearing 6204-2RS',       'purchased_component', 'pieces', '3.40',  '1200'),
		    ('PC-MTR-020', 'Stepper Motor NEMA 23',       'purchased_component', 'pieces', '28.90', '85'),
		    ('PC-FST-030', 'Hex Bolt M8x25',              'purchased_component', 'pieces', '0.12',  '8000')
		) AS i(sku, name, category, unit, unit_cost, qty_on_hand)
		WHERE c.company_code = '1000'
		ON CONFLICT (company_id, sku) DO UPDATE
		  SET name = EXCLUDED.name,
		      category = EXCLUDED.category,
		      unit = EXCLUDED.unit,
		      unit_cost = EXCLUDED.unit_cost;
	`)
	if err != nil {
		log.Fatalf("Failed to restore items: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data restored successfully.")
	os.Exit(0)
}
