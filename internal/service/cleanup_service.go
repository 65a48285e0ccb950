package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/outfity/trend-radar/internal/metrics"
	"github.com/outfity/trend-radar/internal/model"
	"github.com/outfity/trend-radar/internal/scoring"
)

// topTrendsLimit caps the highest-scored trends section of the report.
const topTrendsLimit = 10

type trendStore interface {
	ListAll(ctx context.Context) ([]*model.TrendProduct, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score int) error
}

type batchDeleter interface {
	DeleteProductsWithEvents(ctx context.Context, products []*model.TrendProduct) (int64, error)
}

type factorSource interface {
	Gather(ctx context.Context, product *model.TrendProduct) (scoring.Factors, error)
}

// CleanupService sweeps the whole radar: every product is rescored and the
// ones below the retention threshold are removed.
type CleanupService struct {
	products trendStore
	deleter  batchDeleter
	factors  factorSource
}

// NewCleanupService creates a new CleanupService.
func NewCleanupService(products trendStore, deleter batchDeleter, factors factorSource) *CleanupService {
	return &CleanupService{
		products: products,
		deleter:  deleter,
		factors:  factors,
	}
}

// ReportLine is one product entry in a cleanup report.
type ReportLine struct {
	Name   string `json:"name"`
	Brand  string `json:"brand"`
	Zone   string `json:"zone"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// CleanupReport summarizes one cleanup run.
type CleanupReport struct {
	DryRun        bool           `json:"dryRun"`
	Scanned       int            `json:"scanned"`
	Rescored      int            `json:"rescored"`
	Kept          int            `json:"kept"`
	Deleted       int            `json:"deleted"`
	KeptByZone    map[string]int `json:"keptByZone"`
	KeptBySegment map[string]int `json:"keptBySegment"`
	TopTrends     []ReportLine   `json:"topTrends"`
	Deletions     []ReportLine   `json:"deletions"`
}

// Run rescores every stored product and deletes the ones that fall below the
// retention threshold. With dryRun set, scores are recomputed and the report
// shows what would happen, but nothing is written.
func (cs *CleanupService) Run(ctx context.Context, dryRun bool) (*CleanupReport, error) {
	products, err := cs.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trend products: %w", err)
	}

	report := &CleanupReport{
		DryRun:        dryRun,
		Scanned:       len(products),
		KeptByZone:    make(map[string]int),
		KeptBySegment: make(map[string]int),
	}

	var toDelete []*model.TrendProduct
	var kept []ReportLine

	for _, product := range products {
		factors, err := cs.factors.Gather(ctx, product)
		if err != nil {
			return nil, fmt.Errorf("failed to gather factors for %s: %w", product.ID, err)
		}

		result := scoring.Compute(factors)
		line := ReportLine{
			Name:   product.Name,
			Brand:  product.SourceBrand,
			Zone:   string(product.MarketZone),
			Score:  result.Score,
			Reason: result.Reason,
		}

		if result.Score != product.TrendScore {
			if !dryRun {
				if err := cs.products.UpdateScore(ctx, product.ID, result.Score); err != nil {
					return nil, fmt.Errorf("failed to update score for %s: %w", product.ID, err)
				}
			}
			report.Rescored++
		}

		if result.ShouldKeep {
			report.Kept++
			report.KeptByZone[string(product.MarketZone)]++
			report.KeptBySegment[string(product.Segment)]++
			kept = append(kept, line)
		} else {
			toDelete = append(toDelete, product)
			report.Deletions = append(report.Deletions, line)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > topTrendsLimit {
		kept = kept[:topTrendsLimit]
	}
	report.TopTrends = kept

	if dryRun {
		report.Deleted = len(toDelete)
		return report, nil
	}

	deleted, err := cs.deleter.DeleteProductsWithEvents(ctx, toDelete)
	if err != nil {
		return nil, fmt.Errorf("failed to delete low-score products: %w", err)
	}
	report.Deleted = int(deleted)
	metrics.TrendsDeleted.Add(float64(deleted))

	slog.Info("Cleanup run finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("rescored", report.Rescored),
		slog.Int("kept", report.Kept),
		slog.Int("deleted", report.Deleted),
	)

	return report, nil
}

// Print writes a human-readable summary of the report.
func (r *CleanupReport) Print(w io.Writer) {
	mode := "cleanup"
	if r.DryRun {
		mode = "cleanup (dry run)"
	}
	fmt.Fprintf(w, "%s: scanned=%d rescored=%d kept=%d deleted=%d\n",
		mode, r.Scanned, r.Rescored, r.Kept, r.Deleted)

	if len(r.KeptByZone) > 0 {
		fmt.Fprintln(w, "kept by zone:")
		for _, zone := range sortedKeys(r.KeptByZone) {
			fmt.Fprintf(w, "  %-5s %d\n", zone, r.KeptByZone[zone])
		}
	}
	if len(r.KeptBySegment) > 0 {
		fmt.Fprintln(w, "kept by segment:")
		for _, segment := range sortedKeys(r.KeptBySegment) {
			fmt.Fprintf(w, "  %-6s %d\n", segment, r.KeptBySegment[segment])
		}
	}
	if len(r.TopTrends) > 0 {
		fmt.Fprintln(w, "top trends:")
		for _, line := range r.TopTrends {
			fmt.Fprintf(w, "  %3d  %s / %s (%s) - %s\n", line.Score, line.Brand, line.Name, line.Zone, line.Reason)
		}
	}
	if len(r.Deletions) > 0 {
		fmt.Fprintln(w, "deletions:")
		for _, line := range r.Deletions {
			fmt.Fprintf(w, "  %3d  %s / %s (%s) - %s\n", line.Score, line.Brand, line.Name, line.Zone, line.Reason)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
