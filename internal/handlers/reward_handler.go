package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"piggybank/internal/service"
)

// RewardHandler serves the parent's reward catalogue and claim approvals
type RewardHandler struct {
	rewards *service.RewardService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewards *service.RewardService) *RewardHandler {
	return &RewardHandler{rewards: rewards}
}

// List returns the parent's rewards with their claims
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	rewards, err := h.rewards.ListRewards(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch rewards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": rewards})
}

// Create adds a reward
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Cost        decimal.Decimal `json:"cost"`
		ImageURL    *string         `json:"imageUrl"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	reward, err := h.rewards.CreateReward(r.Context(), user.ID, service.CreateRewardInput{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create reward")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"reward": reward})
}

// ApproveClaim debits the kid and approves the claim
func (h *RewardHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	claim, err := h.rewards.ApproveClaim(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to approve claim")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claim": claim})
}

// RejectClaim rejects the claim
func (h *RewardHandler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	claim, err := h.rewards.RejectClaim(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to reject claim")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claim": claim})
}
