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

var _ repository.GenerationRepository = (*DB)(nil)

const generationColumns = `id, user_id, prompt, image_url, description, created_at`

// CreateGeneration inserts gen, filling in ID and CreatedAt.
func (db *DB) CreateGeneration(ctx context.Context, gen *model.Generation) error {
	gen.ID = xid.New().String()
	gen.CreatedAt = time.Now().UTC()

	_, err := db.exec(ctx,
		`INSERT INTO generations (`+generationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		gen.ID,
		gen.UserID,
		gen.Prompt,
		gen.ImageURL,
		gen.Description,
		gen.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting generation for user %s: %w", gen.UserID, err)
	}
	return nil
}

// ListGenerations returns up to repository.MaxListSize generations, newest first.
// An empty slice (not nil) is returned when the user has none.
func (db *DB) ListGenerations(ctx context.Context, userID string) ([]model.Generation, error) {
	rows, err := db.query(ctx,
		`SELECT `+generationColumns+` FROM generations
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID, repository.MaxListSize,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing generations: %w", err)
	}
	defer rows.Close()

	gens := []model.Generation{}
	for rows.Next() {
		var g model.Generation
		if err := rows.Scan(&g.ID, &g.UserID, &g.Prompt, &g.ImageURL, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning generation row: %w", err)
		}
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating generation rows: %w", err)
	}
	return gens, nil
}

func (db *DB) GetGeneration(ctx context.Context, userID, id string) (*model.Generation, error) {
	var g model.Generation
	err := db.queryRow(ctx,
		`SELECT `+generationColumns+` FROM generations WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&g.ID, &g.UserID, &g.Prompt, &g.ImageURL, &g.Description, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("generation", id)
		}
		return nil, fmt.Errorf("sqlstore: getting generation %s: %w", id, err)
	}
	return &g, nil
}

// DeleteGeneration removes exactly one row. A row owned by another user is
// reported as not found.
func (db *DB) DeleteGeneration(ctx context.Context, userID, id string) error {
	result, err := db.exec(ctx,
		`DELETE FROM generations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting generation %s: %w", id, err)
	}
	return expectOneRow(result, "generation", id)
}

// expectOneRow turns "0 rows affected" into apperror.NotFound.
func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
