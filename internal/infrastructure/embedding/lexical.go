package embedding

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/optiprice/backend/internal/domain"
)

// Analyzer splits text into normalized terms
type Analyzer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func newAnalyzer() (*Analyzer, error) {
	return &Analyzer{
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+`),
		stopwords:    defaultStopwords(),
	}, nil
}

// Terms returns the lowercase terms of text without stop words and single characters
func (a *Analyzer) Terms(text string) []string {
	raw := a.tokenPattern.FindAllString(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, t := range raw {
		if len([]rune(t)) <= 1 {
			continue
		}
		if _, isStop := a.stopwords[t]; isStop {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

// LexicalProvider weights terms with TF-IDF over the batch itself, so the
// reference text and all candidates share one vocabulary.
type LexicalProvider struct {
	analyzer *Lazy[*Analyzer]
}

// NewLexicalProvider creates a lexical provider
func NewLexicalProvider() *LexicalProvider {
	return &LexicalProvider{analyzer: NewLazy(newAnalyzer)}
}

// Name returns the strategy identifier
func (p *LexicalProvider) Name() string { return StrategyLexical }

// Warm initializes the shared analyzer
func (p *LexicalProvider) Warm() error {
	_, err := p.analyzer.Get()
	return err
}

// Embed computes one L2-normalized TF-IDF vector per text.
// The batch must hold a reference and at least one candidate.
func (p *LexicalProvider) Embed(ctx context.Context, batch []string) ([]domain.EmbeddingVector, error) {
	if len(batch) < 2 {
		return nil, fmt.Errorf("%w: lexical weighting needs at least 2 texts, got %d",
			domain.ErrEmbeddingUnavailable, len(batch))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	analyzer, err := p.analyzer.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: analyzer init: %v", domain.ErrEmbeddingUnavailable, err)
	}

	docs := make([][]string, len(batch))
	df := make(map[string]int)
	for i, text := range batch {
		docs[i] = analyzer.Terms(text)
		seen := make(map[string]bool, len(docs[i]))
		for _, term := range docs[i] {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	if len(df) == 0 {
		return nil, fmt.Errorf("%w: no terms in batch", domain.ErrEmbeddingUnavailable)
	}

	// Stable vocabulary ordering keeps vectors deterministic
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(batch))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0 // smoothed
	}

	vectors := make([]domain.EmbeddingVector, len(batch))
	for i, doc := range docs {
		vectors[i] = weigh(doc, vocabulary, idf)
	}

	return vectors, nil
}

// weigh builds the normalized TF-IDF vector of one document
func weigh(doc []string, vocabulary map[string]int, idf []float64) domain.EmbeddingVector {
	vec := make(domain.EmbeddingVector, len(idf))
	if len(doc) == 0 {
		return vec
	}

	counts := make([]int, len(idf))
	for _, term := range doc {
		counts[vocabulary[term]]++
	}

	total := float64(len(doc))
	var norm float64
	for idx, count := range counts {
		if count == 0 {
			continue
		}
		vec[idx] = float64(count) / total * idf[idx]
		norm += vec[idx] * vec[idx]
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// defaultStopwords covers English and German, the marketplace languages in use
func defaultStopwords() map[string]struct{} {
	words := []string{
		// English
		"an", "the", "and", "or", "but", "if", "then", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "it", "this", "that", "these",
		"those", "from", "up", "into", "about", "so", "than", "too", "very", "can", "will", "your",
		// German
		"der", "die", "das", "den", "dem", "des", "ein", "eine", "einer", "eines", "einem", "einen",
		"und", "oder", "aber", "mit", "von", "zu", "zum", "zur", "im", "ist", "sind", "sie", "es",
		"für", "auf", "aus", "bei", "nach", "wie", "dank", "bis", "sich", "lässt", "dieser", "dieses",
		"diese", "ihr", "ihrem", "ihren", "ob", "oder", "als", "auch", "nicht", "noch", "wenn",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
