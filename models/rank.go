package models

// Rank is one rung of the ladder. Code is the slug of Name.
type Rank struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	RequiredPoints int64  `json:"required_points"`
}
