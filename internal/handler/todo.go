package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/auth"
	"github.com/sakif/creo-studio/internal/service"
)

// TodoHandler serves the todo list API behind auth.RequireAuth.
type TodoHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
}

func NewTodoHandler(svc *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{svc: svc, logger: logger}
}

type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTodoRequest struct {
	Completed *bool `json:"completed"`
}

// HandleList: GET /api/todos
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	todos, err := h.svc.List(r.Context(), userID)
	if err != nil {
		logFailure(h.logger, "listing todos failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// HandleCreate: POST /api/todos {"title": "...", "description": "..."}
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return
	}

	todo, err := h.svc.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		logFailure(h.logger, "creating todo failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// HandleUpdate: PATCH /api/todos/{id} {"completed": true}
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "Invalid JSON body"))
		return
	}
	if req.Completed == nil {
		writeError(w, apperror.ValidationFailed("completed", "completed is required"))
		return
	}

	todo, err := h.svc.SetCompleted(r.Context(), userID, chi.URLParam(r, "id"), *req.Completed)
	if err != nil {
		logFailure(h.logger, "updating todo failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// HandleDelete: DELETE /api/todos/{id}
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		logFailure(h.logger, "deleting todo failed", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
