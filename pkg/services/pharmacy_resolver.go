package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/repositories"
)

// PharmacyResolver resolves pharmacy identities against the store, creating
// records lazily in name mode. Names are matched exactly, never fuzzily.
type PharmacyResolver interface {
	// ResolveByName returns the id for the exact pharmacy name, creating the
	// record with placeholder contact details when absent. Concurrent
	// creation races converge via conflict-upsert.
	ResolveByName(ctx context.Context, name string) (int64, error)

	// ResolveByOwner returns the pharmacy owned by ownerKey. No
	// auto-creation: a missing association is apperrors.ErrNoAssociatedPharmacy.
	ResolveByOwner(ctx context.Context, ownerKey string) (*models.Pharmacy, error)
}

type pharmacyResolver struct {
	pharmacies repositories.PharmacyRepository
	logger     *zap.Logger
}

// NewPharmacyResolver creates a new PharmacyResolver.
func NewPharmacyResolver(pharmacies repositories.PharmacyRepository, logger *zap.Logger) PharmacyResolver {
	return &pharmacyResolver{pharmacies: pharmacies, logger: logger}
}

var _ PharmacyResolver = (*pharmacyResolver)(nil)

func (r *pharmacyResolver) ResolveByName(ctx context.Context, name string) (int64, error) {
	existing, err := r.pharmacies.GetByName(ctx, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("failed to look up pharmacy %q: %w", name, err)
	}

	id, err := r.pharmacies.UpsertByName(ctx, name)
	if err != nil {
		return 0, err
	}
	r.logger.Info("Created pharmacy",
		zap.String("name", name),
		zap.Int64("pharmacy_id", id),
	)
	return id, nil
}

func (r *pharmacyResolver) ResolveByOwner(ctx context.Context, ownerKey string) (*models.Pharmacy, error) {
	p, err := r.pharmacies.GetByOwnerKey(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNoAssociatedPharmacy
		}
		return nil, fmt.Errorf("failed to look up pharmacy for owner: %w", err)
	}
	return p, nil
}

// filenameSuffix is the fixed pattern a drop file must carry for its pharmacy
// name to be derived from the filename.
const filenameSuffix = "_pharmacy_ndc_list"

var titleCaser = cases.Title(language.English)

// DerivePharmacyName extracts a pharmacy name from a drop filename of the
// form <name>_pharmacy_ndc_list.<ext> (case-insensitive). Underscores become
// spaces and the result is title-cased; other characters pass through, so
// "b&b_pharmacy_ndc_list.csv" derives "B&B". Returns false when the filename
// does not match the pattern.
func DerivePharmacyName(path string) (string, bool) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	lower := strings.ToLower(stem)
	if !strings.HasSuffix(lower, filenameSuffix) {
		return "", false
	}

	name := stem[:len(stem)-len(filenameSuffix)]
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return titleCaser.String(name), true
}
