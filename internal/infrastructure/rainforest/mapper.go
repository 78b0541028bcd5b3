package rainforest

import (
	"strings"

	"github.com/optiprice/backend/internal/domain"
)

// Defaults for search results the marketplace lists without a price
const (
	DefaultCurrency = "EUR"
	defaultAmount   = 0.0
)

// MapSearchResult converts a Rainforest search item to a domain Candidate.
// The review count stands in as the popularity signal.
func MapSearchResult(item domain.RainforestSearchResult) domain.Candidate {
	price := domain.Price{Amount: defaultAmount, Currency: DefaultCurrency}
	if item.Price != nil {
		if item.Price.Value > 0 {
			price.Amount = item.Price.Value
		}
		if item.Price.Currency != "" {
			price.Currency = strings.ToUpper(item.Price.Currency)
		}
	}

	popularity := item.RatingsTotal
	if popularity < 0 {
		popularity = 0
	}

	return domain.Candidate{
		ID:               item.ASIN,
		Title:            strings.TrimSpace(item.Title),
		Price:            price,
		Link:             item.Link,
		Image:            item.Image,
		PopularitySignal: popularity,
	}
}

// MapProduct converts a Rainforest product to the text used for matching.
// Blank bullets are skipped.
func MapProduct(product *domain.RainforestProduct) *domain.ProductText {
	bullets := make([]string, 0, len(product.FeatureBullets))
	for _, b := range product.FeatureBullets {
		if b = strings.TrimSpace(b); b != "" {
			bullets = append(bullets, b)
		}
	}

	return &domain.ProductText{
		Title:           strings.TrimSpace(product.Title),
		Bullets:         bullets,
		LongDescription: strings.TrimSpace(product.Description),
	}
}
