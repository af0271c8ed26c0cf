package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/creo-studio/internal/auth"
	"github.com/sakif/creo-studio/internal/model"
	"github.com/sakif/creo-studio/internal/service"
)

// GenerationHandler serves the signed-in user's gallery. All routes must be
// mounted behind auth.RequireAuth.
type GenerationHandler struct {
	svc    *service.GenerationService
	logger *slog.Logger
}

func NewGenerationHandler(svc *service.GenerationService, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{svc: svc, logger: logger}
}

// CreateGenerationResponse is returned with 201 Created.
type CreateGenerationResponse struct {
	Message    string            `json:"message"`
	Generation *model.Generation `json:"generation"`
}

// HandleList: GET /api/generations
func (h *GenerationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	gens, err := h.svc.List(r.Context(), userID)
	if err != nil {
		logFailure(h.logger, "listing generations failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gens)
}

// HandleCreate: POST /api/generations {"prompt": "..."}
func (h *GenerationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Failed to generate image: Invalid JSON body",
		})
		return
	}

	gen, err := h.svc.Generate(r.Context(), userID, req.Prompt)
	if err != nil {
		logFailure(h.logger, "generation failed", err)
		writeErrorPrefixed(w, err, "Failed to generate image: ")
		return
	}

	writeJSON(w, http.StatusCreated, CreateGenerationResponse{
		Message:    "Image generated successfully!",
		Generation: gen,
	})
}

// HandleDelete: DELETE /api/generations/{id}
func (h *GenerationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		logFailure(h.logger, "deleting generation failed", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDownload: GET /api/generations/{id}/download
func (h *GenerationHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	dl, err := h.svc.Download(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		logFailure(h.logger, "downloading generation failed", err)
		writeError(w, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, dl.Body); err != nil {
		h.logger.Warn("download interrupted", slog.String("error", err.Error()))
	}
}
