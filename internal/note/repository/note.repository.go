package repository

import (
	"context"
	"database/sql"
	"errors"

	"notestash/internal/note/model"
	"notestash/pkg/logger"
)

type NoteRepository struct {
	DB *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

const noteColumns = "id, title, content, image_key, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (model.Note, error) {
	var n model.Note
	var imageKey sql.NullString
	err := row.Scan(&n.ID, &n.Title, &n.Content, &imageKey, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return model.Note{}, err
	}
	if imageKey.Valid {
		n.ImageKey = &imageKey.String
	}
	return n, nil
}

func nullableKey(key *string) sql.NullString {
	if key == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *key, Valid: true}
}

func (r *NoteRepository) Create(ctx context.Context, title, content string, imageKey *string) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO notes (title, content, image_key, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING `+noteColumns,
		title, content, nullableKey(imageKey))
	n, err := scanNote(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note: %v", err)
		return model.Note{}, err
	}
	return n, nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id int64) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get note %d: %v", id, err)
		return model.Note{}, err
	}
	return n, nil
}

// List returns all notes, newest first. Equal timestamps surface in
// insertion order; Postgres alone does not guarantee a stable sort, so
// id breaks the tie.
func (r *NoteRepository) List(ctx context.Context) ([]model.Note, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC, id ASC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes: %v", err)
		return nil, err
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan note row: %v", err)
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, id int64, title, content string, imageKey *string) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE notes SET title = $1, content = $2, image_key = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+noteColumns,
		title, content, nullableKey(imageKey), id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %d: %v", id, err)
		return model.Note{}, err
	}
	return n, nil
}

// Delete removes the row and returns it, so the caller can inspect the
// former image key.
func (r *NoteRepository) Delete(ctx context.Context, id int64) (model.Note, error) {
	row := r.DB.QueryRowContext(ctx,
		`DELETE FROM notes WHERE id = $1 RETURNING `+noteColumns, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, model.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %d: %v", id, err)
		return model.Note{}, err
	}
	return n, nil
}
