package handler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/creo-studio/internal/auth"
	"github.com/sakif/creo-studio/internal/generator"
	"github.com/sakif/creo-studio/internal/generator/placeholder"
	"github.com/sakif/creo-studio/internal/model"
	"github.com/sakif/creo-studio/internal/repository/sqlstore"
	"github.com/sakif/creo-studio/internal/service"
	"github.com/sakif/creo-studio/web"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// createUser inserts a user directly and returns its id.
func createUser(t *testing.T, db *sqlstore.DB, email string) string {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "unused"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u.ID
}

// asUser attaches userID the way auth.RequireAuth does.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

// MockGenerator returns ReturnErr when set, the placeholder result otherwise.
type MockGenerator struct {
	CapturedPrompt string
	ReturnErr      error
}

var _ generator.Generator = (*MockGenerator)(nil)

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (*generator.Result, error) {
	m.CapturedPrompt = prompt
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return placeholder.New().Generate(ctx, prompt)
}

var errBoom = errors.New("boom")

func newGenerationService(db *sqlstore.DB, gen generator.Generator) *service.GenerationService {
	return service.NewGenerationService(db, gen, nil, nil, web.Static(), discardLogger())
}

func newAuthService(t *testing.T, db *sqlstore.DB) (*service.AuthService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	require.NoError(t, err)
	svc := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), nil, discardLogger())
	return svc, tokens
}
