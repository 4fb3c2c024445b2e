package handlers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"piggybank/internal/service"
	"piggybank/internal/validation"
)

// KidHandler serves kid mode: PIN sign-in and the signed-in kid's own views
type KidHandler struct {
	kidSessions *service.KidSessionManager
	ledger      *service.LedgerService
	rewards     *service.RewardService
	chat        *service.ChatService
}

// NewKidHandler creates a new kid handler
func NewKidHandler(kidSessions *service.KidSessionManager, ledger *service.LedgerService, rewards *service.RewardService, chat *service.ChatService) *KidHandler {
	return &KidHandler{
		kidSessions: kidSessions,
		ledger:      ledger,
		rewards:     rewards,
		chat:        chat,
	}
}

// GetSession reports whether a kid is signed in and, if so, who
func (h *KidHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.kidSessions.Read(r.Context(), w, r)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to read kid session", err)
		return
	}
	if info == nil {
		writeJSON(w, http.StatusOK, kidSessionStatus{Authenticated: false})
		return
	}

	txs, err := h.ledger.Recent(r.Context(), info.Kid.ID, service.KidRecentTransactions)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to read kid session", err)
		return
	}

	writeJSON(w, http.StatusOK, kidSessionStatus{
		Authenticated: true,
		Kid:           &KidSessionView{PublicKid: info.Kid.Public(), Transactions: txs},
	})
}

// CreateSession signs a kid in with their PIN
func (h *KidHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KidID string `json:"kidId"`
		PIN   string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	v := validation.New()
	v.Check(strings.TrimSpace(req.KidID) != "", "kidId", "kidId is required")
	v.Check(req.PIN != "", "pin", "pin is required")
	if err := v.Err(); err != nil {
		respondWithServiceError(w, r, err, "")
		return
	}

	sessionID, kid, err := h.kidSessions.Create(r.Context(), w, r, req.KidID, req.PIN)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create kid session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"sessionId": sessionID,
		"kid":       kid,
	})
}

// DeleteSession signs the kid out. It always succeeds.
func (h *KidHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.kidSessions.Clear(w, r)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListRewards returns the rewards the signed-in kid can claim
func (h *KidHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	info := GetKidSessionFromContext(r.Context())

	rewards, err := h.rewards.ListForKid(r.Context(), info.Kid)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch rewards")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": rewards})
}

// ClaimReward asks for a reward on behalf of the signed-in kid
func (h *KidHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	info := GetKidSessionFromContext(r.Context())

	claim, err := h.rewards.ClaimReward(r.Context(), info.Kid, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to claim reward")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"claim": claim})
}

// SavingsMessage returns an encouraging note about a savings goal
func (h *KidHandler) SavingsMessage(w http.ResponseWriter, r *http.Request) {
	info := GetKidSessionFromContext(r.Context())

	var req struct {
		GoalName     string          `json:"goalName"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.chat.SavingsMessage(r.Context(), info.Kid, req.GoalName, req.TargetAmount)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to generate savings message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
