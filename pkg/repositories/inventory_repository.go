package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/database"
	"github.com/ichooserx/rxsync-engine/pkg/models"
)

// InventoryRepository provides data access for inventory records and owns the
// change-aware upsert. No other component mutates inventory rows.
type InventoryRepository interface {
	// Upsert applies one normalized record inside its own transaction.
	// An absent (pharmacy_id, ndc) key inserts; a present key updates the
	// five descriptive fields plus last_updated only when one of them
	// actually changed. Row-level atomicity: each call commits on its own,
	// so a failure partway through a file leaves earlier rows applied.
	Upsert(ctx context.Context, record *models.InventoryRecord) (models.UpsertResult, error)

	// GetByPharmacyNDC fetches one record by its uniqueness key.
	GetByPharmacyNDC(ctx context.Context, pharmacyID int64, ndc string) (*models.InventoryRecord, error)

	// ListByPharmacy returns all inventory rows for a pharmacy, ordered by NDC.
	ListByPharmacy(ctx context.Context, pharmacyID int64) ([]*models.InventoryRecord, error)
}

type inventoryRepository struct {
	db *database.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *database.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

var _ InventoryRepository = (*inventoryRepository)(nil)

const inventoryColumns = `
	id, pharmacy_id, ndc,
	COALESCE(drug_name, ''), COALESCE(stock_status, ''), COALESCE(form, ''),
	COALESCE(strength, ''), COALESCE(supplier, ''),
	last_updated, created_at, updated_at`

func (r *inventoryRepository) Upsert(ctx context.Context, record *models.InventoryRecord) (models.UpsertResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	// No-op after a successful commit.
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := getByKey(ctx, tx, record.PharmacyID, record.NDC)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return 0, err
	}

	var result models.UpsertResult
	switch {
	case existing == nil:
		query := `
			INSERT INTO pharmacy_inventories
				(pharmacy_id, ndc, drug_name, stock_status, form, strength, supplier,
				 last_updated, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), NOW())
			RETURNING id, last_updated, created_at, updated_at`
		err := tx.QueryRow(ctx, query,
			record.PharmacyID, record.NDC, record.DrugName, record.StockStatus,
			record.Form, record.Strength, record.Supplier,
		).Scan(&record.ID, &record.LastUpdated, &record.CreatedAt, &record.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert inventory record: %w", err)
		}
		result = models.UpsertInserted

	case models.FieldsDiffer(existing, record):
		query := `
			UPDATE pharmacy_inventories
			SET drug_name = $2, stock_status = $3, form = $4, strength = $5,
			    supplier = $6, last_updated = NOW(), updated_at = NOW()
			WHERE id = $1
			RETURNING last_updated, updated_at`
		err := tx.QueryRow(ctx, query,
			existing.ID, record.DrugName, record.StockStatus,
			record.Form, record.Strength, record.Supplier,
		).Scan(&record.LastUpdated, &record.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to update inventory record: %w", err)
		}
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		result = models.UpsertUpdated

	default:
		// Nothing changed; no write.
		record.ID = existing.ID
		record.LastUpdated = existing.LastUpdated
		result = models.UpsertUnchanged
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit upsert transaction: %w", err)
	}
	return result, nil
}

func (r *inventoryRepository) GetByPharmacyNDC(ctx context.Context, pharmacyID int64, ndc string) (*models.InventoryRecord, error) {
	return getByKey(ctx, r.db, pharmacyID, ndc)
}

func (r *inventoryRepository) ListByPharmacy(ctx context.Context, pharmacyID int64) ([]*models.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM pharmacy_inventories
		WHERE pharmacy_id = $1
		ORDER BY ndc`

	rows, err := r.db.Query(ctx, query, pharmacyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var records []*models.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inventory rows: %w", err)
	}
	return records, nil
}

// queryRower is satisfied by both the pool and a transaction, so the upsert's
// read can run inside its own transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getByKey(ctx context.Context, q queryRower, pharmacyID int64, ndc string) (*models.InventoryRecord, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM pharmacy_inventories
		WHERE pharmacy_id = $1 AND ndc = $2`

	rec, err := scanInventory(q.QueryRow(ctx, query, pharmacyID, ndc))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inventory record: %w", err)
	}
	return rec, nil
}

func scanInventory(row rowScanner) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := row.Scan(
		&rec.ID, &rec.PharmacyID, &rec.NDC,
		&rec.DrugName, &rec.StockStatus, &rec.Form, &rec.Strength, &rec.Supplier,
		&rec.LastUpdated, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
