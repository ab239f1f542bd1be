package domain

import "time"

// RatingSummary is the derived rating of a product over its active,
// unflagged reviews. UpdatedAt is nil until the first recomputation.
type RatingSummary struct {
	ProductID     string     `json:"product_id"`
	AverageRating float64    `json:"average_rating"`
	ReviewCount   int        `json:"review_count"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// EmptyRatingSummary is the summary of a product that has never been
// recomputed.
func EmptyRatingSummary(productID string) *RatingSummary {
	return &RatingSummary{ProductID: productID}
}
