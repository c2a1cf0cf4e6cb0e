package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/romangod6/store-insights/internal/competitor"
	"github.com/romangod6/store-insights/internal/models"
)

// CompetitorReport is the outcome of one competitor analysis.
type CompetitorReport struct {
	Store       *models.StoreInsights     `json:"store"`
	Competitors []models.CompetitorResult `json:"competitors"`
	Summary     string                    `json:"summary"`
}

// AnalyzeCompetitors extracts the origin store, discovers up to
// maxCompetitors candidate competitors and extracts each of them. Candidates
// that cannot be extracted are skipped. Competitors are ranked by
// similarity to the origin, most similar first.
func (s *Service) AnalyzeCompetitors(ctx context.Context, rawURL string, maxCompetitors int) (*CompetitorReport, error) {
	origin, _, err := s.Extract(ctx, rawURL, false)
	var persistErr *PersistenceError
	if err != nil && !errors.As(err, &persistErr) {
		return nil, err
	}

	brand := origin.BrandName
	if brand == "" {
		brand = competitor.BrandFromURL(origin.StoreURL)
	}

	candidates, err := s.finder.Find(ctx, brand, maxCompetitors, origin.StoreURL)
	if err != nil {
		log.Printf("Competitor search for %q failed: %v", brand, err)
	}
	log.Printf("Found %d competitor candidates for %s", len(candidates), origin.StoreURL)

	extracted := s.extractCompetitors(ctx, candidates)

	report := &CompetitorReport{
		Store:       origin,
		Competitors: []models.CompetitorResult{},
	}
	others := make([]*models.StoreInsights, 0, len(extracted))
	for _, in := range extracted {
		if in == nil || in.StoreURL == origin.StoreURL {
			continue
		}
		others = append(others, in)
		report.Competitors = append(report.Competitors, models.CompetitorResult{
			Insights:   in,
			Similarity: competitor.Similarity(origin, in),
		})
	}

	sort.SliceStable(report.Competitors, func(i, j int) bool {
		return report.Competitors[i].Similarity > report.Competitors[j].Similarity
	})
	for i := range report.Competitors {
		report.Competitors[i].Rank = i + 1
	}
	report.Summary = competitor.Summary(origin, others)

	for _, c := range report.Competitors {
		analysis := &models.CompetitorAnalysis{
			StoreURL:      origin.StoreURL,
			CompetitorURL: c.Insights.StoreURL,
			Similarity:    c.Similarity,
			Summary:       report.Summary,
		}
		if err := s.store.SaveCompetitorAnalysis(ctx, analysis); err != nil {
			log.Printf("Failed to save competitor analysis %s -> %s: %v", origin.StoreURL, c.Insights.StoreURL, err)
		}
	}

	if persistErr != nil {
		return report, persistErr
	}
	return report, nil
}

// extractCompetitors runs the candidate extractions with bounded
// concurrency. Failed candidates leave a nil slot.
func (s *Service) extractCompetitors(ctx context.Context, urls []string) []*models.StoreInsights {
	results := make([]*models.StoreInsights, len(urls))
	semaphore := make(chan struct{}, s.config.MaxConcurrentCompetitors)
	var wg sync.WaitGroup

launch:
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break launch
		}
		wg.Add(1)

		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			insights, _, err := s.Extract(ctx, u, false)
			if err != nil {
				var persistErr *PersistenceError
				if !errors.As(err, &persistErr) {
					log.Printf("Skipping competitor %s: %v", u, err)
					return
				}
				log.Printf("Competitor %s extracted but not cached: %v", u, err)
			}
			results[i] = insights
		}(i, u)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		log.Printf("Competitor extraction stopped early: %v", err)
	}
	return results
}

// ListAnalyses returns the stored competitor analyses for rawURL, newest
// first.
func (s *Service) ListAnalyses(ctx context.Context, rawURL string) ([]*models.CompetitorAnalysis, error) {
	storeURL, err := models.NormalizeStoreURL(rawURL)
	if err != nil {
		return nil, err
	}

	analyses, err := s.store.ListCompetitorAnalyses(ctx, storeURL)
	if err != nil {
		return nil, &PersistenceError{StoreURL: storeURL, Err: err}
	}
	return analyses, nil
}
