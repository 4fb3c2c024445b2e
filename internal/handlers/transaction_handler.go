package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"piggybank/internal/models"
	"piggybank/internal/service"
	"piggybank/internal/validation"
)

// TransactionHandler serves the parent's ledger
type TransactionHandler struct {
	ledger *service.LedgerService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ledger *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type recordTransactionRequest struct {
	KidID       string           `json:"kidId"`
	Type        string           `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	Category    *string          `json:"category"`
	Metadata    json.RawMessage  `json:"metadata"`
}

// List returns the newest transactions, optionally for one kid
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	txs, err := h.ledger.List(r.Context(), user.ID, r.URL.Query().Get("kidId"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch transactions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// Create records a transaction and updates the kid's balance
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req recordTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	metadata, ok := parseMetadata(req.Metadata)
	in := service.RecordInput{
		KidID:       req.KidID,
		Kind:        models.TransactionKind(req.Type),
		Description: req.Description,
		Category:    req.Category,
		Metadata:    metadata,
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}

	v := validation.New()
	v.Check(req.Amount != nil, "amount", "amount is required")
	v.Check(ok, "metadata", "metadata must be a JSON object")
	if err := v.Merge(service.ValidateRecordInput(&in)); err != nil {
		respondWithServiceError(w, r, err, "Failed to create transaction")
		return
	}
	if err := v.Err(); err != nil {
		respondWithServiceError(w, r, err, "")
		return
	}

	tx, err := h.ledger.Record(r.Context(), user.ID, in)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction": tx})
}

// parseMetadata accepts an absent, null, or object value
func parseMetadata(raw json.RawMessage) (models.Metadata, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}
	if trimmed[0] != '{' {
		return nil, false
	}
	var metadata models.Metadata
	if err := json.Unmarshal(trimmed, &metadata); err != nil {
		return nil, false
	}
	return metadata, true
}
