package domain

import "time"

// RecommendedSet is six distinct numbers in ascending order.
type RecommendedSet []int

// Recommendation is one batch of sets produced for a strategy and window.
type Recommendation struct {
	ID        string           `json:"id"`
	Strategy  string           `json:"strategy"`
	Period    int              `json:"period"`
	Mode      string           `json:"mode"`
	Seed      uint64           `json:"seed"`
	Sets      []RecommendedSet `json:"sets"`
	CreatedAt time.Time        `json:"created_at"`
}
