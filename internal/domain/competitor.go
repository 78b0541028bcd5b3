package domain

// ProductText is the raw descriptive content of a marketplace listing.
// Any field may be empty.
type ProductText struct {
	Title           string   `json:"title"`
	Bullets         []string `json:"bullets,omitempty"`
	LongDescription string   `json:"longDescription,omitempty"`
}

// IsEmpty reports whether every source field is empty
func (p ProductText) IsEmpty() bool {
	if p.Title != "" || p.LongDescription != "" {
		return false
	}
	for _, b := range p.Bullets {
		if b != "" {
			return false
		}
	}
	return true
}

// Price is a listing price; Currency is an ISO 4217 code
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Candidate is one marketplace listing considered as a potential competitor
type Candidate struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Price            Price   `json:"price"`
	Link             string  `json:"link,omitempty"`
	Image            string  `json:"image,omitempty"`
	PopularitySignal int     `json:"popularitySignal"` // review count used as a rough sales proxy
	AssembledText    string  `json:"-"`
	Preview          string  `json:"preview,omitempty"`
	Similarity       float64 `json:"similarity"`
}

// EmbeddingVector is a dense text representation produced by one embedding strategy
type EmbeddingVector []float64

// PriceSuggestion is a pricing range derived from the best match
type PriceSuggestion struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Currency string  `json:"currency"`
}

// MatchResult is the outcome of a competitor match run.
// When Degraded is true the similarity values carry no meaning.
type MatchResult struct {
	BestMatch     *Candidate       `json:"bestMatch"`
	AllCandidates []Candidate      `json:"allCandidates"`
	Degraded      bool             `json:"degraded"`
	Strategy      string           `json:"strategy,omitempty"`
	Suggestion    *PriceSuggestion `json:"suggestion,omitempty"`
}

// MatchRequest represents a competitor match request
type MatchRequest struct {
	Keyword     string `json:"keyword" binding:"required"`
	Description string `json:"description"`
}
