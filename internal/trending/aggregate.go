package trending

import (
	"context"

	"github.com/jalshrestha/Outfit/internal/models"
	"golang.org/x/sync/errgroup"
)

// Aggregate holds the per-source results of one fan-out.
type Aggregate struct {
	Results map[models.SourceName][]models.OutfitRecord
	Errors  map[models.SourceName]error
}

func (a *Aggregate) Total() int {
	total := 0
	for _, records := range a.Results {
		total += len(records)
	}
	return total
}

// Combined concatenates the results in source order, keeping each list's
// own order. No deduplication is done.
func (a *Aggregate) Combined() []models.OutfitRecord {
	combined := make([]models.OutfitRecord, 0, a.Total())
	for _, source := range models.AllSources {
		combined = append(combined, a.Results[source]...)
	}
	return combined
}

func (a *Aggregate) Counts() map[string]int {
	counts := make(map[string]int, len(models.AllSources))
	for _, source := range models.AllSources {
		counts[string(source)] = len(a.Results[source])
	}
	return counts
}

// FetchAll runs every source's ladder concurrently. A failing source
// contributes an empty list and never cancels the others.
func (s *Service) FetchAll(ctx context.Context, maxResults int, allowFresh bool) *Aggregate {
	results := make([][]models.OutfitRecord, len(models.AllSources))
	errs := make([]error, len(models.AllSources))

	var g errgroup.Group
	for i, source := range models.AllSources {
		g.Go(func() error {
			records, err := s.fetch(ctx, source, maxResults, allowFresh)
			if err != nil {
				s.logger.Error("source failed during aggregate fetch", "source", source, "error", err)
				errs[i] = err
				records = []models.OutfitRecord{}
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	agg := &Aggregate{
		Results: make(map[models.SourceName][]models.OutfitRecord, len(models.AllSources)),
		Errors:  make(map[models.SourceName]error),
	}
	for i, source := range models.AllSources {
		agg.Results[source] = results[i]
		if errs[i] != nil {
			agg.Errors[source] = errs[i]
		}
	}

	s.logger.Info("aggregate fetch completed",
		"total", agg.Total(),
		"pinterest", len(agg.Results[models.SourcePinterest]),
		"hollister", len(agg.Results[models.SourceHollister]),
		"hm", len(agg.Results[models.SourceHM]))

	return agg
}
