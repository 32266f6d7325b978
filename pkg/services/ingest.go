package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/schema"
	"github.com/ichooserx/rxsync-engine/pkg/tabular"
)

// IngestService drives the ingestion pipeline for one dropped file: load,
// reconcile columns, resolve pharmacy identity, dedup, then a sequential
// change-aware upsert per row. One file at a time; row-level failures skip
// the row, structural failures abort the file.
type IngestService interface {
	// IngestFile processes a drop whose pharmacy comes from a Pharmacy column
	// or, failing that, from the filename pattern.
	IngestFile(ctx context.Context, path string) (*models.IngestReport, error)

	// IngestFileForOwner processes a drop on behalf of an owning account. The
	// pharmacy must already exist for that owner; rows carry no say in which
	// pharmacy they attach to.
	IngestFileForOwner(ctx context.Context, path, ownerKey string) (*models.IngestReport, error)
}

// IngestConfig tunes the orchestrator.
type IngestConfig struct {
	// Cooldown is the debounce window: a trigger whose source modification
	// time falls within this window of the last processed one for the same
	// path is ignored as a duplicate notification.
	Cooldown time.Duration

	// FuzzyThreshold is passed through to column reconciliation.
	FuzzyThreshold int

	// Synonyms overrides the canonical synonym table; nil means the default.
	Synonyms schema.SynonymTable
}

// DefaultIngestConfig returns the orchestrator defaults: 5s debounce and the
// standard reconciliation threshold.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		Cooldown:       5 * time.Second,
		FuzzyThreshold: schema.DefaultFuzzyThreshold,
	}
}

type ingestService struct {
	resolver  PharmacyResolver
	inventory InventoryUpserter
	cfg       IngestConfig
	logger    *zap.Logger

	// lastProcessed maps path to the source modification time of the last
	// processed trigger. Entries live for the process lifetime; the watched
	// directory has bounded cardinality.
	mu            sync.Mutex
	lastProcessed map[string]time.Time
}

// InventoryUpserter is the slice of the inventory repository the orchestrator
// needs.
type InventoryUpserter interface {
	Upsert(ctx context.Context, record *models.InventoryRecord) (models.UpsertResult, error)
}

// NewIngestService creates a new IngestService.
func NewIngestService(resolver PharmacyResolver, inventory InventoryUpserter, cfg IngestConfig, logger *zap.Logger) IngestService {
	if cfg.Synonyms == nil {
		cfg.Synonyms = schema.DefaultSynonyms
	}
	if cfg.FuzzyThreshold == 0 {
		cfg.FuzzyThreshold = schema.DefaultFuzzyThreshold
	}
	return &ingestService{
		resolver:      resolver,
		inventory:     inventory,
		cfg:           cfg,
		logger:        logger,
		lastProcessed: make(map[string]time.Time),
	}
}

var _ IngestService = (*ingestService)(nil)

func (s *ingestService) IngestFile(ctx context.Context, path string) (*models.IngestReport, error) {
	return s.ingest(ctx, path, "")
}

func (s *ingestService) IngestFileForOwner(ctx context.Context, path, ownerKey string) (*models.IngestReport, error) {
	if ownerKey == "" {
		return nil, fmt.Errorf("owner key must not be empty")
	}
	return s.ingest(ctx, path, ownerKey)
}

func (s *ingestService) ingest(ctx context.Context, path, ownerKey string) (*models.IngestReport, error) {
	modTime, err := s.debounce(path)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	started := time.Now()
	log := s.logger.With(
		zap.Stringer("run_id", runID),
		zap.String("path", path),
	)
	log.Info("Processing file")

	report, err := s.process(ctx, log, path, ownerKey)
	if err != nil {
		log.Error("File aborted", zap.Error(err))
		return nil, err
	}

	// Only a processed file arms the debounce window for its modification
	// time; aborted files may be retried immediately after a fix.
	s.markProcessed(path, modTime)

	report.RunID = runID
	report.Path = path
	report.StartedAt = started
	report.Duration = time.Since(started)
	log.Info("File processing complete",
		zap.String("pharmacy", report.Pharmacy),
		zap.Int("rows", report.Rows),
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", report.Skipped),
		zap.Int("duplicates", report.Duplicates),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// debounce returns the file's current modification time, or ErrDebounced when
// that modification was already processed within the cooldown window.
func (s *ingestService) debounce(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	modTime := info.ModTime()

	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastProcessed[path]; ok {
		if diff := modTime.Sub(last); diff < s.cfg.Cooldown {
			return time.Time{}, fmt.Errorf("%w: %s modified %s after last processed write", apperrors.ErrDebounced, path, diff)
		}
	}
	return modTime, nil
}

func (s *ingestService) markProcessed(path string, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProcessed[path] = modTime
}

func (s *ingestService) process(ctx context.Context, log *zap.Logger, path, ownerKey string) (*models.IngestReport, error) {
	table, err := tabular.Load(path)
	if err != nil {
		return nil, err
	}
	mapping := schema.Reconcile(table.Headers, s.cfg.Synonyms, s.cfg.FuzzyThreshold)
	log.Debug("Columns reconciled",
		zap.Int("headers", len(table.Headers)),
		zap.Int("reconciled", len(mapping)),
	)

	// Pharmacy identity: owner key pins the pharmacy; otherwise a Pharmacy
	// column resolves per row, and as a last resort the filename pattern
	// names a single pharmacy for the whole file.
	var (
		fixedID   int64
		fixedName string
	)
	perRow := false
	switch {
	case ownerKey != "":
		pharmacy, err := s.resolver.ResolveByOwner(ctx, ownerKey)
		if err != nil {
			return nil, err
		}
		fixedID, fixedName = pharmacy.ID, pharmacy.Name
	case mapping.Has(schema.ColumnPharmacy):
		perRow = true
	default:
		name, ok := DerivePharmacyName(path)
		if !ok {
			return nil, fmt.Errorf("%w: no pharmacy column and filename %q does not match the derivation pattern",
				apperrors.ErrPharmacyUnresolvable, path)
		}
		id, err := s.resolver.ResolveByName(ctx, name)
		if err != nil {
			return nil, err
		}
		fixedID, fixedName = id, name
	}

	rows, duplicates := dedupeRows(table, mapping, fixedName)

	report := &models.IngestReport{
		PharmacyID: fixedID,
		Pharmacy:   fixedName,
		Rows:       len(rows),
		Duplicates: duplicates,
	}

	// Pharmacy ids created earlier in the file are reused by later rows.
	resolved := map[string]int64{}
	if fixedName != "" {
		resolved[fixedName] = fixedID
	}

	for i, fields := range rows {
		pharmacyID := fixedID
		if perRow {
			if fields.Pharmacy == "" {
				report.Skipped++
				log.Warn("Skipping row: missing pharmacy", zap.Int("row", i+1))
				continue
			}
			id, ok := resolved[fields.Pharmacy]
			if !ok {
				var err error
				id, err = s.resolver.ResolveByName(ctx, fields.Pharmacy)
				if err != nil {
					// Pharmacy creation failure is structural, not row noise.
					return nil, err
				}
				resolved[fields.Pharmacy] = id
			}
			pharmacyID = id
		}

		record, err := normalizeRow(fields, pharmacyID)
		if err != nil {
			report.Skipped++
			log.Warn("Skipping row", zap.Int("row", i+1), zap.Error(err))
			continue
		}

		result, err := s.inventory.Upsert(ctx, record)
		if err != nil {
			report.Skipped++
			log.Warn("Skipping row: upsert failed",
				zap.Int("row", i+1),
				zap.String("ndc", record.NDC),
				zap.Error(err),
			)
			continue
		}

		switch result {
		case models.UpsertInserted:
			report.Inserted++
			log.Info("Inserted inventory record",
				zap.Int64("pharmacy_id", record.PharmacyID),
				zap.String("ndc", record.NDC),
			)
		case models.UpsertUpdated:
			report.Updated++
			log.Info("Updated inventory record",
				zap.Int64("pharmacy_id", record.PharmacyID),
				zap.String("ndc", record.NDC),
			)
		case models.UpsertUnchanged:
			report.Unchanged++
		}
	}

	if perRow && report.PharmacyID == 0 && len(resolved) == 1 {
		for name, id := range resolved {
			report.Pharmacy, report.PharmacyID = name, id
		}
	}

	return report, nil
}
