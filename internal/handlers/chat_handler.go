package handlers

import (
	"net/http"

	"piggybank/internal/service"
)

// ChatHandler serves the AI assistant endpoints for parents
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat answers a parent's message
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
		KidID     string `json:"kidId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.chat.Chat(r.Context(), user.ID, service.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		KidID:     req.KidID,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to process chat")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SuggestChore proposes a payment for a chore
func (h *ChatHandler) SuggestChore(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		ChoreName   string `json:"choreName"`
		Description string `json:"description"`
		KidID       string `json:"kidId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	suggestion, err := h.chat.SuggestChoreAmount(r.Context(), user.ID, service.ChoreInput{
		ChoreName:   req.ChoreName,
		Description: req.Description,
		KidID:       req.KidID,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to suggest chore amount")
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
