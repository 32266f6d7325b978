package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/summaryapi"
)

// SummaryService aggregates externally-fetched drug summary data into
// export-ready JSON and tabular views.
type SummaryService interface {
	BuildSummary(ctx context.Context, drugNames, filters []string) (*models.SummaryExport, error)
}

type summaryService struct {
	client summaryapi.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(client summaryapi.Client, logger *zap.Logger) SummaryService {
	return &summaryService{client: client, logger: logger, now: time.Now}
}

var _ SummaryService = (*summaryService)(nil)

const summaryTimestampLayout = "2006-01-02 15:04:05"

func (s *summaryService) BuildSummary(ctx context.Context, drugNames, filters []string) (*models.SummaryExport, error) {
	if len(drugNames) == 0 {
		return nil, fmt.Errorf("drug_names must be provided")
	}

	response, err := s.client.FetchSummaries(ctx, drugNames, filters)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.DrugSummary, 0, len(response.Summary))
	jsonData := make([]models.DrugSummaryJSON, 0, len(response.Summary))
	for _, item := range response.Summary {
		summary := fromAPI(item)
		summaries = append(summaries, summary)
		jsonData = append(jsonData, models.DrugSummaryJSON{
			DrugName:         summary.DrugName,
			TotalResults:     summary.TotalCount,
			FilteredResults:  summary.FilteredCount,
			AlignmentScore:   summary.AlignmentScore,
			TopManufacturers: models.CountManufacturers(summary.Variants),
		})
	}

	s.logger.Debug("Built drug summaries",
		zap.Int("requested", len(drugNames)),
		zap.Int("returned", len(summaries)),
	)

	return &models.SummaryExport{
		CreatedAt:   s.now().Format(summaryTimestampLayout),
		FiltersUsed: filters,
		JSONData:    jsonData,
		TableData:   s.buildTableData(summaries, response.FiltersApplied),
	}, nil
}

// fromAPI maps one API summary item onto the domain model. Absent drug names
// render as "N/A" in exports.
func fromAPI(item summaryapi.Item) *models.DrugSummary {
	attrs := item.Attributes
	name := attrs.DrugName
	if name == "" {
		name = "N/A"
	}
	return &models.DrugSummary{
		DrugName:          name,
		AlignmentScore:    models.AlignmentScore(attrs.FilteredResults, attrs.TotalResults),
		ManufacturerCount: len(models.CountManufacturers(attrs.Variants)),
		FilteredCount:     attrs.FilteredResults,
		TotalCount:        attrs.TotalResults,
		Variants:          attrs.Variants,
	}
}

// buildTableData renders the spreadsheet layout: a created-at/filters
// preamble, a two-row summary header, summaries sorted by filtered count
// descending, then per-drug top-manufacturer sections.
func (s *summaryService) buildTableData(summaries []*models.DrugSummary, applied []summaryapi.Filter) [][]any {
	labels := make([]string, 0, len(applied))
	for _, f := range applied {
		labels = append(labels, f.Label)
	}

	rows := [][]any{
		{"Created At:", s.now().Format(summaryTimestampLayout)},
		{"Filters Used:", strings.Join(labels, ", ")},
		{},
		{"Drug Name", "Total Results", "Filtered Results", "Alignment Score (0-10)"},
		{"", "", "", "Based on % of drug variants matching your selected filters"},
	}

	// Manufacturer sections keep API order; the summary rows sort by
	// filtered count.
	var sections [][]any
	for _, summary := range summaries {
		sections = append(sections, manufacturerSection(summary)...)
	}

	sorted := make([]*models.DrugSummary, len(summaries))
	copy(sorted, summaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FilteredCount > sorted[j].FilteredCount
	})
	for _, summary := range sorted {
		rows = append(rows, []any{
			summary.DrugName, summary.TotalCount, summary.FilteredCount, summary.AlignmentScore,
		})
	}

	return append(rows, sections...)
}

func manufacturerSection(summary *models.DrugSummary) [][]any {
	section := [][]any{
		{},
		{fmt.Sprintf("Top Manufacturers for %s", summary.DrugName), "Count"},
	}

	counts := models.CountManufacturers(summary.Variants)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		section = append(section, []any{name, counts[name]})
	}
	return section
}
