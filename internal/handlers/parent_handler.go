package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"piggybank/internal/service"
)

// ParentHandler serves the parent's management of their kids
type ParentHandler struct {
	kidService    *service.KidService
	uploadMaxSize int64
}

// NewParentHandler creates a new parent handler
func NewParentHandler(kidService *service.KidService, uploadMaxSize int64) *ParentHandler {
	return &ParentHandler{
		kidService:    kidService,
		uploadMaxSize: uploadMaxSize,
	}
}

// ListKids returns the parent's kids
func (h *ParentHandler) ListKids(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	kids, err := h.kidService.ListKids(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch kids")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"kids": newKidViews(kids)})
}

// CreateKid adds a kid
func (h *ParentHandler) CreateKid(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
		Age  *int   `json:"age"`
		PIN  string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	kid, err := h.kidService.CreateKid(r.Context(), user.ID, service.CreateKidInput{
		Name: req.Name,
		Age:  req.Age,
		PIN:  req.PIN,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create kid")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"kid": newKidView(kid)})
}

// SetPIN replaces a kid's PIN
func (h *ParentHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.kidService.SetPIN(r.Context(), user.ID, r.PathValue("id"), req.PIN); err != nil {
		respondWithServiceError(w, r, err, "Failed to update PIN")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// RegeneratePIN assigns a random PIN and returns it once
func (h *ParentHandler) RegeneratePIN(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	pin, err := h.kidService.RegeneratePIN(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to regenerate PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pin": pin})
}

// DeleteKid removes a kid and its history
func (h *ParentHandler) DeleteKid(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := h.kidService.DeleteKid(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete kid")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// UploadAvatar stores a multipart "avatar" image for a kid
func (h *ParentHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize)
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, r, http.StatusRequestEntityTooLarge, "Avatar is too large", nil)
			return
		}
		respondWithError(w, r, http.StatusBadRequest, "Invalid form data", nil)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	defer file.Close()

	kid, err := h.kidService.UploadAvatar(r.Context(), user.ID, r.PathValue("id"),
		filepath.Base(header.Filename), header.Header.Get("Content-Type"), file)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to upload avatar")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"kid": newKidView(kid)})
}
