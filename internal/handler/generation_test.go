package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/creo-studio/internal/handler"
	"github.com/sakif/creo-studio/internal/model"
)

// generationRouter mounts the gallery routes and authenticates every
// request as the user named in the X-Test-User header.
func generationRouter(h *handler.GenerationHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, asUser(req, req.Header.Get("X-Test-User")))
		})
	})
	r.Get("/api/generations", h.HandleList)
	r.Post("/api/generations", h.HandleCreate)
	r.Delete("/api/generations/{id}", h.HandleDelete)
	r.Get("/api/generations/{id}/download", h.HandleDownload)
	return r
}

func do(t *testing.T, router http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGenerationHandler(t *testing.T) {
	db := newStore(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	router := generationRouter(handler.NewGenerationHandler(newGenerationService(db, &MockGenerator{}), discardLogger()))

	create := func(t *testing.T, userID, prompt string) model.Generation {
		t.Helper()
		body, err := json.Marshal(map[string]string{"prompt": prompt})
		require.NoError(t, err)
		rr := do(t, router, http.MethodPost, "/api/generations", userID, string(body))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var res handler.CreateGenerationResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Image generated successfully!", res.Message)
		require.NotNil(t, res.Generation)
		return *res.Generation
	}

	list := func(t *testing.T, userID string) []model.Generation {
		t.Helper()
		rr := do(t, router, http.MethodGet, "/api/generations", userID, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var gens []model.Generation
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&gens))
		return gens
	}

	first := create(t, alice, "  a lighthouse at dusk  ")
	second := create(t, alice, "a lighthouse at dawn")
	third := create(t, alice, "a lighthouse at noon")

	t.Run("create trims the prompt", func(t *testing.T) {
		assert.Equal(t, "a lighthouse at dusk", first.Prompt)
		assert.Equal(t, alice, first.UserID)
		assert.Equal(t, "/placeholder.png", first.ImageURL)
	})

	t.Run("list is newest first", func(t *testing.T) {
		gens := list(t, alice)
		require.Len(t, gens, 3)
		assert.Equal(t, []string{third.ID, second.ID, first.ID},
			[]string{gens[0].ID, gens[1].ID, gens[2].ID})
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/generations", bob, "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("blank prompt", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/api/generations", alice, `{"prompt":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Failed to generate image: Prompt is required")
	})

	t.Run("invalid body", func(t *testing.T) {
		rr := do(t, router, http.MethodPost, "/api/generations", alice, `{`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("download", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/generations/"+first.ID+"/download", alice, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="creo-a-lighthouse-at-dusk.png"`, rr.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("other users cannot delete", func(t *testing.T) {
		rr := do(t, router, http.MethodDelete, "/api/generations/"+second.ID, bob, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Len(t, list(t, alice), 3)
	})

	t.Run("other users cannot download", func(t *testing.T) {
		rr := do(t, router, http.MethodGet, "/api/generations/"+second.ID+"/download", bob, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete removes exactly that row", func(t *testing.T) {
		rr := do(t, router, http.MethodDelete, "/api/generations/"+second.ID, alice, "")
		assert.Equal(t, http.StatusNoContent, rr.Code)

		gens := list(t, alice)
		require.Len(t, gens, 2)
		assert.Equal(t, third.ID, gens[0].ID)
		assert.Equal(t, first.ID, gens[1].ID)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		rr := do(t, router, http.MethodDelete, "/api/generations/"+second.ID, alice, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), `"not_found"`)
	})
}

func TestGenerationHandler_GeneratorFailure(t *testing.T) {
	db := newStore(t)
	alice := createUser(t, db, "alice@example.com")
	router := generationRouter(handler.NewGenerationHandler(
		newGenerationService(db, &MockGenerator{ReturnErr: errBoom}), discardLogger()))

	rr := do(t, router, http.MethodPost, "/api/generations", alice, `{"prompt":"a cat"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"upstream_error","message":"Failed to generate image: boom"}`, rr.Body.String())
}
