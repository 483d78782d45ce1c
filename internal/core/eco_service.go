package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ECOService interface {
	// OpenECO creates a DRAFT change order against a BOM. The idempotency key
	// makes retried calls return the existing order instead of a duplicate.
	OpenECO(ctx context.Context, companyID, bomID int, summary, createdBy, idempotencyKey string) (int, error)
	// PostECO assigns a gapless ECO number and marks the order POSTED.
	// Use for standalone calls.
	PostECO(ctx context.Context, ecoID int) error
	// PostECOTx posts inside the caller's transaction. Use when the posting
	// must be atomic with the change it records (e.g. a revision bump).
	PostECOTx(ctx context.Context, tx pgx.Tx, ecoID int) error
	// GetECOs returns change orders for a company, newest first.
	GetECOs(ctx context.Context, companyID int) ([]ECO, error)
}

type ecoService struct {
	pool *pgxpool.Pool
}

func NewECOService(pool *pgxpool.Pool) ECOService {
	return &ecoService{pool: pool}
}

func (s *ecoService) OpenECO(ctx context.Context, companyID, bomID int, summary, createdBy, idempotencyKey string) (int, error) {
	if idempotencyKey != "" {
		var existing int
		err := s.pool.QueryRow(ctx,
			"SELECT id FROM ecos WHERE idempotency_key = $1", idempotencyKey,
		).Scan(&existing)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("check ECO idempotency key: %w", err)
		}
	}

	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ecos (company_id, bom_id, status, summary, idempotency_key, created_by)
		VALUES ($1, $2, 'DRAFT', $3, $4, $5)
		RETURNING id`,
		companyID, bomID, summary, key, createdBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create draft ECO: %w", err)
	}
	return id, nil
}

func (s *ecoService) PostECO(ctx context.Context, ecoID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := postECOWithTx(ctx, tx, ecoID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *ecoService) PostECOTx(ctx context.Context, tx pgx.Tx, ecoID int) error {
	return postECOWithTx(ctx, tx, ecoID)
}

// postECOWithTx assigns the number and flips status inside a provided
// transaction. The sequence upsert under the row lock keeps the numbering
// gapless even under concurrent postings.
func postECOWithTx(ctx context.Context, tx pgx.Tx, ecoID int) error {
	var companyID int
	var status string
	err := tx.QueryRow(ctx,
		"SELECT company_id, status FROM ecos WHERE id = $1 FOR UPDATE", ecoID,
	).Scan(&companyID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ECO %d not found", ecoID)
		}
		return fmt.Errorf("read ECO for update: %w", err)
	}
	if status != string(ECOStatusDraft) {
		return fmt.Errorf("ECO %d must be DRAFT to post, current status: %s", ecoID, status)
	}

	var lastNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO eco_sequences (company_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (company_id)
		DO UPDATE SET last_number = eco_sequences.last_number + 1
		RETURNING last_number`,
		companyID,
	).Scan(&lastNumber)
	if err != nil {
		return fmt.Errorf("generate gapless ECO number: %w", err)
	}

	var year int
	if err := tx.QueryRow(ctx, "SELECT EXTRACT(YEAR FROM NOW())::int").Scan(&year); err != nil {
		return fmt.Errorf("resolve posting year: %w", err)
	}
	formatted := fmt.Sprintf("ECO-%d-%05d", year, lastNumber)

	if _, err := tx.Exec(ctx, `
		UPDATE ecos
		SET status = $1, eco_number = $2, posted_at = NOW()
		WHERE id = $3`,
		string(ECOStatusPosted), formatted, ecoID,
	); err != nil {
		return fmt.Errorf("update ECO status and number: %w", err)
	}
	return nil
}

func (s *ecoService) GetECOs(ctx context.Context, companyID int) ([]ECO, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, bom_id, COALESCE(eco_number, ''), status, summary, created_by, created_at, posted_at
		FROM ecos
		WHERE company_id = $1
		ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ECOs: %w", err)
	}
	defer rows.Close()

	var ecos []ECO
	for rows.Next() {
		var e ECO
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.BOMID, &e.ECONumber, &e.Status,
			&e.Summary, &e.CreatedBy, &e.CreatedAt, &e.PostedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ECO: %w", err)
		}
		ecos = append(ecos, e)
	}
	return ecos, nil
}
