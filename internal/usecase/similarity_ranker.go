package usecase

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/optiprice/backend/internal/domain"
)

// RankInput pairs a candidate with the vector computed from its assembled text
type RankInput struct {
	Candidate domain.Candidate
	Vector    domain.EmbeddingVector
}

// SimilarityRanker scores candidates against a reference vector by cosine similarity
type SimilarityRanker struct {
	enableDebugLogging bool
}

// NewSimilarityRanker creates a new ranker
func NewSimilarityRanker(enableDebugLogging bool) *SimilarityRanker {
	return &SimilarityRanker{enableDebugLogging: enableDebugLogging}
}

// Rank scores every candidate and returns the best one together with all scored candidates
// in input order. The first candidate reaching the maximum score wins; best is nil only
// when inputs is empty.
//
// A candidate vector whose dimensionality differs from the reference is reported as
// ErrEmbeddingUnavailable since the vectors cannot come from the same strategy.
func (r *SimilarityRanker) Rank(
	ctx context.Context,
	reference domain.EmbeddingVector,
	inputs []RankInput,
) (*domain.Candidate, []domain.Candidate, error) {
	scored := make([]domain.Candidate, 0, len(inputs))
	bestIdx := -1
	highestScore := math.Inf(-1)

	for i, input := range inputs {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		if len(input.Vector) != len(reference) {
			return nil, nil, fmt.Errorf("%w: reference has %d dimensions, candidate %s has %d",
				domain.ErrEmbeddingUnavailable, len(reference), input.Candidate.ID, len(input.Vector))
		}

		candidate := input.Candidate
		candidate.Similarity = CosineSimilarity(reference, input.Vector)
		scored = append(scored, candidate)

		if r.enableDebugLogging {
			log.Printf("[RANK] Candidate %s | Price: %.2f %s | Similarity: %.4f",
				candidate.ID, candidate.Price.Amount, candidate.Price.Currency, candidate.Similarity)
		}

		if candidate.Similarity > highestScore {
			highestScore = candidate.Similarity
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return nil, scored, nil
	}

	best := scored[bestIdx]
	return &best, scored, nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|).
// Zero-magnitude or mismatched vectors have similarity 0.
func CosineSimilarity(a, b domain.EmbeddingVector) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) {
		return 0
	}
	return score
}
