package domain

// RainforestPrice is the price object attached to search results
type RainforestPrice struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Raw      string  `json:"raw,omitempty"`
}

// RainforestSearchResult represents a single item in a Rainforest search response
type RainforestSearchResult struct {
	ASIN         string           `json:"asin"`
	Title        string           `json:"title"`
	Link         string           `json:"link"`
	Image        string           `json:"image"`
	RatingsTotal int              `json:"ratings_total"`
	Price        *RainforestPrice `json:"price,omitempty"`
}

// RainforestSearchResponse represents the response from the Rainforest search request type
type RainforestSearchResponse struct {
	SearchResults []RainforestSearchResult `json:"search_results"`
}

// RainforestProduct represents the product object of a Rainforest product response
type RainforestProduct struct {
	ASIN           string   `json:"asin"`
	Title          string   `json:"title"`
	FeatureBullets []string `json:"feature_bullets"`
	Description    string   `json:"description"`
}

// RainforestProductResponse represents the response from the Rainforest product request type
type RainforestProductResponse struct {
	Product *RainforestProduct `json:"product"`
}
