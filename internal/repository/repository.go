// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (see sqlstore).
//
// Every generation and todo method takes the owning user's ID. A row owned by
// someone else behaves exactly like a missing row: reads and writes return
// apperror.ErrNotFound.
package repository

import (
	"context"

	"github.com/sakif/creo-studio/internal/model"
)

// MaxListSize bounds how many rows a single list call returns.
const MaxListSize = 500

type UserRepository interface {
	// CreateUser inserts the user, filling ID and CreatedAt.
	// Returns apperror.ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

type GenerationRepository interface {
	CreateGeneration(ctx context.Context, gen *model.Generation) error
	// ListGenerations returns the user's generations, newest first.
	ListGenerations(ctx context.Context, userID string) ([]model.Generation, error)
	GetGeneration(ctx context.Context, userID, id string) (*model.Generation, error)
	DeleteGeneration(ctx context.Context, userID, id string) error
}

type TodoRepository interface {
	CreateTodo(ctx context.Context, todo *model.Todo) error
	// ListTodos returns the user's todos, newest first.
	ListTodos(ctx context.Context, userID string) ([]model.Todo, error)
	SetTodoCompleted(ctx context.Context, userID, id string, completed bool) (*model.Todo, error)
	DeleteTodo(ctx context.Context, userID, id string) error
}

// Store is everything the server needs from its backing database.
type Store interface {
	UserRepository
	GenerationRepository
	TodoRepository

	Ping(ctx context.Context) error
	Close() error
}
