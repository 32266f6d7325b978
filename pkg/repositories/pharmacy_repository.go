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

// PharmacyRepository provides data access for pharmacy records.
type PharmacyRepository interface {
	// GetByName looks a pharmacy up by exact, case-sensitive name.
	GetByName(ctx context.Context, name string) (*models.Pharmacy, error)

	// GetByOwnerKey returns the single pharmacy owned by the given account
	// key, or apperrors.ErrNotFound.
	GetByOwnerKey(ctx context.Context, ownerKey string) (*models.Pharmacy, error)

	// UpsertByName inserts a pharmacy with placeholder contact details, or, if
	// one already exists with that name, bumps only its updated_at. Concurrent
	// creations of the same name converge to one row. Returns the row's id.
	UpsertByName(ctx context.Context, name string) (int64, error)
}

type pharmacyRepository struct {
	db *database.DB
}

// NewPharmacyRepository creates a new PharmacyRepository.
func NewPharmacyRepository(db *database.DB) PharmacyRepository {
	return &pharmacyRepository{db: db}
}

var _ PharmacyRepository = (*pharmacyRepository)(nil)

func (r *pharmacyRepository) GetByName(ctx context.Context, name string) (*models.Pharmacy, error) {
	query := `
		SELECT id, name, address, phone, owner_key, created_at, updated_at
		FROM pharmacies
		WHERE name = $1`

	p, err := scanPharmacy(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pharmacy by name: %w", err)
	}
	return p, nil
}

func (r *pharmacyRepository) GetByOwnerKey(ctx context.Context, ownerKey string) (*models.Pharmacy, error) {
	query := `
		SELECT id, name, address, phone, owner_key, created_at, updated_at
		FROM pharmacies
		WHERE owner_key = $1
		LIMIT 1`

	p, err := scanPharmacy(r.db.QueryRow(ctx, query, ownerKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pharmacy by owner key: %w", err)
	}
	return p, nil
}

func (r *pharmacyRepository) UpsertByName(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO pharmacies (name, address, phone, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query, name, models.PlaceholderAddress, models.PlaceholderPhone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert pharmacy %q: %w", name, err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPharmacy(row rowScanner) (*models.Pharmacy, error) {
	var p models.Pharmacy
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.OwnerKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
