package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/optiprice/backend/internal/domain"
)

// Price suggestion offsets applied to the best match price
const (
	suggestionBelow = 1.0
	suggestionAbove = 2.0
)

// CompetitorServiceConfig holds configuration for the competitor service
type CompetitorServiceConfig struct {
	CandidateLimit     int
	MinTextLength      int
	TitleFallback      bool
	EnrichConcurrency  int
	SearchTimeout      time.Duration
	DetailTimeout      time.Duration
	EmbedTimeout       time.Duration
	EnableDebugLogging bool
}

// CompetitorService finds the marketplace listing closest to a product description.
// Flow: search -> enrich each candidate -> embed batch -> rank -> result
type CompetitorService struct {
	searchClient       domain.SearchClient
	detailClient       domain.DetailClient
	embedder           domain.EmbeddingProvider
	ranker             *SimilarityRanker
	candidateLimit     int
	minTextLength      int
	titleFallback      bool
	enrichConcurrency  int
	searchTimeout      time.Duration
	detailTimeout      time.Duration
	embedTimeout       time.Duration
	enableDebugLogging bool
}

// NewCompetitorService creates a new competitor service with dependencies
func NewCompetitorService(
	searchClient domain.SearchClient,
	detailClient domain.DetailClient,
	embedder domain.EmbeddingProvider,
	config CompetitorServiceConfig,
) *CompetitorService {
	limit := config.CandidateLimit
	if limit <= 0 {
		limit = 3 // every candidate costs one detail request
	}

	minLength := config.MinTextLength
	if minLength < 0 {
		minLength = 0
	}

	concurrency := config.EnrichConcurrency
	if concurrency <= 0 || concurrency > limit {
		concurrency = limit
	}

	return &CompetitorService{
		searchClient:       searchClient,
		detailClient:       detailClient,
		embedder:           embedder,
		ranker:             NewSimilarityRanker(config.EnableDebugLogging),
		candidateLimit:     limit,
		minTextLength:      minLength,
		titleFallback:      config.TitleFallback,
		enrichConcurrency:  concurrency,
		searchTimeout:      durationOrDefault(config.SearchTimeout, 30*time.Second),
		detailTimeout:      durationOrDefault(config.DetailTimeout, 20*time.Second),
		embedTimeout:       durationOrDefault(config.EmbedTimeout, 30*time.Second),
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// FindBestMatch searches the marketplace for keyword and returns the listing whose text is
// closest to myDescription.
//
// Only ErrInvalidInput, ErrSearchFailed and ErrCancelled are returned as errors. Detail
// failures drop the affected candidate and embedding failures produce a degraded result.
func (s *CompetitorService) FindBestMatch(
	ctx context.Context,
	myDescription string,
	keyword string,
) (*domain.MatchResult, error) {
	keyword = strings.Join(strings.Fields(keyword), " ")
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", domain.ErrInvalidInput)
	}

	runID := uuid.NewString()

	// Searching
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	candidates, err := s.search(ctx, keyword)
	if err != nil {
		if cerr := checkCancelled(ctx); cerr != nil {
			return nil, cerr
		}
		log.Printf("[MATCH %s] Search failed for %q: %v", runID, keyword, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
	}
	if len(candidates) == 0 {
		log.Printf("[MATCH %s] No candidates found for %q", runID, keyword)
		return s.emptyResult(), nil
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH %s] Found %d candidates for %q", runID, len(candidates), keyword)
	}

	// Enriching
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	enriched := s.enrich(ctx, runID, candidates)
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	if len(enriched) == 0 {
		log.Printf("[MATCH %s] All %d candidates failed enrichment", runID, len(candidates))
		return s.emptyResult(), nil
	}

	// Embedding
	batch := make([]string, 0, len(enriched)+1)
	batch = append(batch, myDescription)
	for _, c := range enriched {
		batch = append(batch, c.AssembledText)
	}

	vectors, err := s.embed(ctx, batch)
	if err != nil {
		if cerr := checkCancelled(ctx); cerr != nil {
			return nil, cerr
		}
		log.Printf("[MATCH %s] Embedding unavailable, returning degraded result: %v", runID, err)
		return s.degradedResult(enriched), nil
	}

	// Ranking: vectors[0] is the reference, vectors[i+1] belongs to enriched[i]
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	inputs := make([]RankInput, len(enriched))
	for i, c := range enriched {
		inputs[i] = RankInput{Candidate: c, Vector: vectors[i+1]}
	}

	best, scored, err := s.ranker.Rank(ctx, vectors[0], inputs)
	if err != nil {
		if cerr := checkCancelled(ctx); cerr != nil {
			return nil, cerr
		}
		log.Printf("[MATCH %s] Ranking failed, returning degraded result: %v", runID, err)
		return s.degradedResult(enriched), nil
	}

	if s.enableDebugLogging && best != nil {
		log.Printf("[MATCH %s] Best match: %s %q (similarity: %.4f)", runID, best.ID, best.Title, best.Similarity)
	}

	return &domain.MatchResult{
		BestMatch:     best,
		AllCandidates: scored,
		Degraded:      false,
		Strategy:      s.embedder.Name(),
		Suggestion:    suggestPrice(best),
	}, nil
}

// search runs the search stage under its own timeout
func (s *CompetitorService) search(ctx context.Context, keyword string) ([]domain.Candidate, error) {
	searchCtx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	candidates, err := s.searchClient.Search(searchCtx, keyword, s.candidateLimit)
	if err != nil {
		return nil, err
	}

	candidates = dedupeCandidates(candidates)
	if len(candidates) > s.candidateLimit {
		candidates = candidates[:s.candidateLimit]
	}
	return candidates, nil
}

// enrich fetches detail text for every candidate concurrently. Failed candidates are
// dropped; survivors keep their original order.
func (s *CompetitorService) enrich(ctx context.Context, runID string, candidates []domain.Candidate) []domain.Candidate {
	slots := make([]*domain.Candidate, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)

	for i := range candidates {
		i := i
		g.Go(func() error {
			enriched, err := s.enrichCandidate(gctx, candidates[i])
			if err != nil {
				log.Printf("[MATCH %s] Dropping candidate %s: %v", runID, candidates[i].ID, err)
				return nil
			}
			slots[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	result := make([]domain.Candidate, 0, len(candidates))
	for _, c := range slots {
		if c != nil {
			result = append(result, *c)
		}
	}
	return result
}

// enrichCandidate fetches and assembles the detail text of one candidate
func (s *CompetitorService) enrichCandidate(ctx context.Context, candidate domain.Candidate) (*domain.Candidate, error) {
	detailCtx, cancel := context.WithTimeout(ctx, s.detailTimeout)
	defer cancel()

	detail, err := s.detailClient.FetchDetail(detailCtx, candidate.ID)
	if err == nil && detail == nil {
		err = errors.New("no product detail")
	}

	var text string
	if err == nil {
		source := *detail
		if source.Title == "" {
			source.Title = candidate.Title
		}
		text = AssembleText(source, s.minTextLength)
		if text == "" {
			err = errors.New("empty product detail")
		}
	}

	if err != nil {
		if !s.titleFallback || candidate.Title == "" {
			return nil, fmt.Errorf("%w: %v", domain.ErrDetailFailed, err)
		}
		text = candidate.Title
	}

	candidate.AssembledText = text
	candidate.Preview = previewText(text)
	return &candidate, nil
}

// embed runs the embedding stage under its own timeout and checks positional alignment
func (s *CompetitorService) embed(ctx context.Context, batch []string) ([]domain.EmbeddingVector, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vectors, err := s.embedder.Embed(embedCtx, batch)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
	}
	return vectors, nil
}

func (s *CompetitorService) emptyResult() *domain.MatchResult {
	return &domain.MatchResult{
		BestMatch:     nil,
		AllCandidates: []domain.Candidate{},
		Degraded:      false,
		Strategy:      s.embedder.Name(),
	}
}

// degradedResult picks the first surviving candidate without scoring.
// No price suggestion is made since the pick carries no similarity signal.
func (s *CompetitorService) degradedResult(candidates []domain.Candidate) *domain.MatchResult {
	all := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		c.Similarity = 0
		all[i] = c
	}

	best := all[0]
	return &domain.MatchResult{
		BestMatch:     &best,
		AllCandidates: all,
		Degraded:      true,
		Strategy:      s.embedder.Name(),
	}
}

// suggestPrice derives a pricing range around the best match price
func suggestPrice(best *domain.Candidate) *domain.PriceSuggestion {
	if best == nil || best.Price.Amount <= 0 {
		return nil
	}

	return &domain.PriceSuggestion{
		Low:      roundCents(math.Max(0, best.Price.Amount-suggestionBelow)),
		High:     roundCents(best.Price.Amount + suggestionAbove),
		Currency: best.Price.Currency,
	}
}

// dedupeCandidates removes repeated listing IDs, keeping the first occurrence
func dedupeCandidates(candidates []domain.Candidate) []domain.Candidate {
	seen := make(map[string]bool, len(candidates))
	result := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != "" {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
		}
		result = append(result, c)
	}
	return result
}

// checkCancelled converts a done caller context into ErrCancelled
func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	return nil
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
