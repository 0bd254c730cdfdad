package api

import "github.com/mroshb/skill_swap/internal/models"

// ProposeRequest is the body of POST /api/v1/swaps
type ProposeRequest struct {
	RequestedFrom uint   `json:"requested_from"`
	OfferedSkill  string `json:"offered_skill"`
	WantedSkill   string `json:"wanted_skill"`
}

// RespondRequest is the body of PUT /api/v1/swaps/:id/respond
type RespondRequest struct {
	Decision string `json:"decision"`
}

// SwapListResponse wraps a list of offers
type SwapListResponse struct {
	Swaps []models.SwapOffer `json:"swaps"`
	Count int                `json:"count"`
}

// StatsResponse holds offer counts per status
type StatsResponse struct {
	Total    int64                       `json:"total"`
	ByStatus map[models.SwapStatus]int64 `json:"by_status"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
