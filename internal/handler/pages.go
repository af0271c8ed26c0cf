package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/creo-studio/internal/auth"
)

// PageHandler renders the server-side HTML pages. Each page is parsed
// together with base.html, which defines the shared layout.
type PageHandler struct {
	pages       map[string]*template.Template
	authEnabled bool
	logger      *slog.Logger
}

// pageData is what every template sees.
type pageData struct {
	Title       string
	Page        string
	SignedIn    bool
	AuthEnabled bool
}

var pageTitles = map[string]string{
	"home":        "Creo Studio - Turn words into images",
	"generations": "Your generations - Creo Studio",
	"todos":       "Todos - Creo Studio",
}

// NewPageHandler parses base.html plus <page>.html for every page from
// templates.
func NewPageHandler(templates fs.FS, authEnabled bool, logger *slog.Logger) (*PageHandler, error) {
	h := &PageHandler{
		pages:       make(map[string]*template.Template, len(pageTitles)),
		authEnabled: authEnabled,
		logger:      logger,
	}
	for page := range pageTitles {
		tmpl, err := template.ParseFS(templates, "base.html", page+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", page, err)
		}
		h.pages[page] = tmpl
	}
	return h, nil
}

// HandleHome: GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home")
}

// HandleGenerations: GET /generations (anonymous visitors go to /)
func (h *PageHandler) HandleGenerations(w http.ResponseWriter, r *http.Request) {
	h.renderSignedIn(w, r, "generations")
}

// HandleTodos: GET /todos (anonymous visitors go to /)
func (h *PageHandler) HandleTodos(w http.ResponseWriter, r *http.Request) {
	h.renderSignedIn(w, r, "todos")
}

func (h *PageHandler) renderSignedIn(w http.ResponseWriter, r *http.Request, page string) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, page)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page string) {
	_, signedIn := auth.UserIDFromContext(r.Context())
	data := pageData{
		Title:       pageTitles[page],
		Page:        page,
		SignedIn:    signedIn,
		AuthEnabled: h.authEnabled,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
