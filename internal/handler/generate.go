package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/service"
)

// GenerateHandler serves the public POST /api/generate-image endpoint,
// which runs the generator without saving a row.
type GenerateHandler struct {
	svc    *service.GenerationService
	logger *slog.Logger
}

func NewGenerateHandler(svc *service.GenerationService, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{svc: svc, logger: logger}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateFailure is the error body of this endpoint.
type GenerateFailure struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HandleGenerateImage responds with 200 {imageUrl, description, enhancedPrompt},
// 400 when the prompt is missing and 500 for anything else, including a
// body that is not JSON.
func (h *GenerateHandler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid generate request body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, GenerateFailure{
			Error:   "Failed to generate image",
			Details: err.Error(),
		})
		return
	}

	res, err := h.svc.Preview(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, GenerateFailure{Error: "Prompt is required"})
			return
		}

		details := "Unknown error"
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			details = appErr.Message
		}
		h.logger.Error("image generation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, GenerateFailure{
			Error:   "Failed to generate image",
			Details: details,
		})
		return
	}

	writeJSON(w, http.StatusOK, res)
}
