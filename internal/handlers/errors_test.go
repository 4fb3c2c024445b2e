package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"piggybank/internal/logger"
	"piggybank/internal/service"
	"piggybank/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	respondWithError(recorder, req, 418, "Teapot", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != `{"error":"Teapot"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithContext(req.Context(), logger.NewWithWriter(&buf)))

	recorder := httptest.NewRecorder()
	respondWithError(recorder, req, 500, "Internal server error", errors.New("boom"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
	if strings.Contains(recorder.Body.String(), "boom") {
		t.Fatalf("internal error leaked to client: %s", recorder.Body.String())
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "kid not found", err: service.ErrKidNotFound, status: http.StatusNotFound},
		{name: "wrapped kid not found", err: fmt.Errorf("lookup: %w", service.ErrKidNotFound), status: http.StatusNotFound},
		{name: "invalid PIN", err: service.ErrInvalidPIN, status: http.StatusUnauthorized},
		{name: "PIN not set", err: service.ErrPINNotSet, status: http.StatusBadRequest},
		{name: "insufficient balance", err: service.ErrInsufficientBalance, status: http.StatusBadRequest},
		{name: "claim resolved", err: service.ErrClaimResolved, status: http.StatusConflict},
		{name: "AI unavailable", err: service.ErrAIUnavailable, status: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("disk full"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Failed")
			if recorder.Code != tt.status {
				t.Errorf("status = %d, want %d", recorder.Code, tt.status)
			}
		})
	}
}

func TestRespondWithValidationErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	err := validation.Errors{{Field: "pin", Message: "PIN must be exactly 4 digits"}}

	respondWithServiceError(recorder, httptest.NewRequest(http.MethodPost, "/", nil), err, "Failed")

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != ErrInvalidInput || len(body.Details) != 1 || body.Details[0].Field != "pin" {
		t.Errorf("body = %+v", body)
	}
}
