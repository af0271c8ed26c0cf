package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/model"
	"github.com/sakif/creo-studio/internal/repository"
)

var _ repository.TodoRepository = (*DB)(nil)

const todoColumns = `id, user_id, title, description, completed, created_at, updated_at`

// CreateTodo inserts todo as not completed. A nil or empty Description is
// stored as NULL.
func (db *DB) CreateTodo(ctx context.Context, todo *model.Todo) error {
	now := time.Now().UTC()
	todo.ID = xid.New().String()
	todo.Completed = false
	todo.CreatedAt = now
	todo.UpdatedAt = now
	if todo.Description != nil && *todo.Description == "" {
		todo.Description = nil
	}

	_, err := db.exec(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID,
		todo.UserID,
		todo.Title,
		nullString(todo.Description),
		todo.Completed,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting todo for user %s: %w", todo.UserID, err)
	}
	return nil
}

// ListTodos returns up to repository.MaxListSize todos, newest first.
func (db *DB) ListTodos(ctx context.Context, userID string) ([]model.Todo, error) {
	rows, err := db.query(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, repository.MaxListSize,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning todo row: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating todo rows: %w", err)
	}
	return todos, nil
}

// SetTodoCompleted updates the flag and returns the updated row.
func (db *DB) SetTodoCompleted(ctx context.Context, userID, id string, completed bool) (*model.Todo, error) {
	result, err := db.exec(ctx,
		`UPDATE todos SET completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		completed, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating todo %s: %w", id, err)
	}
	if err := expectOneRow(result, "todo", id); err != nil {
		return nil, err
	}

	t, err := scanTodo(db.queryRow(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("todo", id)
		}
		return nil, fmt.Errorf("sqlstore: reloading todo %s: %w", id, err)
	}
	return t, nil
}

func (db *DB) DeleteTodo(ctx context.Context, userID, id string) error {
	result, err := db.exec(ctx,
		`DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting todo %s: %w", id, err)
	}
	return expectOneRow(result, "todo", id)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*model.Todo, error) {
	var (
		t    model.Todo
		desc sql.NullString
	)
	if err := s.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
