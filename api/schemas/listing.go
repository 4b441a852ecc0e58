package schemas

import "time"

// -- Property Listing Schemas --

// Listing is a marketplace property document as persisted in the listings
// collection. The embedding field backs Atlas vector search and is never
// returned to API consumers.
type Listing struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Address     string    `json:"address" bson:"address"`
	Location    Location  `json:"location" bson:"location"`
	Price       float64   `json:"price" bson:"price"`
	Bedrooms    int       `json:"bedrooms" bson:"bedrooms"`
	Bathrooms   int       `json:"bathrooms" bson:"bathrooms"`
	AreaSqM     float64   `json:"area_sqm" bson:"area_sqm"`
	Amenities   []string  `json:"amenities,omitempty" bson:"amenities,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	Embedding   []float32 `json:"-" bson:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// ListingFilter narrows keyword search results.
type ListingFilter struct {
	Query       string  `json:"query"`
	MaxPrice    float64 `json:"max_price"`
	MinBedrooms int     `json:"min_bedrooms"`
	Limit       int     `json:"limit"`
}

// ScoredListing pairs a listing with its vector-search relevance score.
type ScoredListing struct {
	Listing Listing `json:"listing" bson:",inline"`
	Score   float64 `json:"score" bson:"score"`
}

// -- AI Appraisal Schemas --

// AppraisalResult is the validated shape of an AI-generated property
// appraisal.
type AppraisalResult struct {
	ListingID      string   `json:"listing_id"`
	EstimatedValue float64  `json:"estimated_value"`
	ValueLow       float64  `json:"value_low"`
	ValueHigh      float64  `json:"value_high"`
	Currency       string   `json:"currency"`
	Confidence     float64  `json:"confidence"`
	Factors        []string `json:"factors,omitempty"`
	Rationale      string   `json:"rationale,omitempty"`
}

// -- Local Events Schemas --

// LocalEvent is one AI-discovered event near a listing or report location.
type LocalEvent struct {
	Name        string `json:"name"`
	Date        string `json:"date,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}
