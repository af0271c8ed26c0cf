package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/cache"
	"github.com/sakif/creo-studio/internal/events"
	"github.com/sakif/creo-studio/internal/model"
	"github.com/sakif/creo-studio/internal/repository"
)

// Input limits for todos. They are enforced here, not in the schema, so the
// user sees a readable validation message instead of a driver error.
const (
	MaxTodoTitleLength       = 200
	MaxTodoDescriptionLength = 2000
)

// TodoService handles the per-user todo list.
type TodoService struct {
	repo   repository.TodoRepository
	lists  *listCache[model.Todo]
	events events.Publisher
	logger *slog.Logger
}

func NewTodoService(repo repository.TodoRepository, c cache.Cache, pub events.Publisher, logger *slog.Logger) *TodoService {
	return &TodoService{
		repo:   repo,
		lists:  newListCache[model.Todo](c, logger),
		events: pub,
		logger: logger,
	}
}

// List returns the user's todos, newest first.
func (s *TodoService) List(ctx context.Context, userID string) ([]model.Todo, error) {
	todos, err := s.lists.load(ctx, cache.TodosKey(userID), func(ctx context.Context) ([]model.Todo, error) {
		return s.repo.ListTodos(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("service/todo: listing: %w", err)
	}
	return todos, nil
}

// Create adds a not-completed todo. Title and description are trimmed; an
// empty description is stored as NULL.
func (s *TodoService) Create(ctx context.Context, userID, title, description string) (*model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "Title is required")
	}
	if len([]rune(title)) > MaxTodoTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or fewer", MaxTodoTitleLength))
	}

	todo := &model.Todo{UserID: userID, Title: title}
	if d := strings.TrimSpace(description); d != "" {
		if len([]rune(d)) > MaxTodoDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("Description must be %d characters or fewer", MaxTodoDescriptionLength))
		}
		todo.Description = &d
	}

	if err := s.repo.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("service/todo: creating: %w", err)
	}

	s.lists.invalidate(ctx, cache.TodosKey(userID))
	publish(ctx, s.events, s.logger, events.New(events.TodoCreated, userID, todo.ID))
	return todo, nil
}

// SetCompleted sets the completion flag and returns the updated todo.
func (s *TodoService) SetCompleted(ctx context.Context, userID, id string, completed bool) (*model.Todo, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "todo ID is required")
	}
	todo, err := s.repo.SetTodoCompleted(ctx, userID, id, completed)
	if err != nil {
		return nil, fmt.Errorf("service/todo: updating %s: %w", id, err)
	}

	s.lists.invalidate(ctx, cache.TodosKey(userID))
	evt := events.TodoReopened
	if completed {
		evt = events.TodoCompleted
	}
	publish(ctx, s.events, s.logger, events.New(evt, userID, id))
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return apperror.ValidationFailed("id", "todo ID is required")
	}
	if err := s.repo.DeleteTodo(ctx, userID, id); err != nil {
		return fmt.Errorf("service/todo: deleting %s: %w", id, err)
	}

	s.lists.invalidate(ctx, cache.TodosKey(userID))
	publish(ctx, s.events, s.logger, events.New(events.TodoDeleted, userID, id))
	s.logger.Info("todo deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}
