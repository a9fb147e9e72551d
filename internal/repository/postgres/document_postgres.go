package postgres

import (
	"context"
	"database/sql"
	"errors"

	"digilocker/internal/model"
	"digilocker/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new report_metadata row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error) {
	const q = `
		INSERT INTO report_metadata (id, health_id, filename, file_url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, health_id, filename, file_url, uploaded_at
	`
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		string(rec.HealthID),
		rec.Filename,
		rec.FileURL,
		rec.UploadedAt,
	)
	out, err := scanRecord(row)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single record by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.DocumentRecord, error) {
	const q = `
		SELECT id, health_id, filename, file_url, uploaded_at
		FROM report_metadata
		WHERE id = $1
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByHealthID returns the records of one locker ordered by upload time, newest first.
func (r *DocumentPostgres) ListByHealthID(ctx context.Context, healthID model.Identifier) ([]model.DocumentRecord, error) {
	const q = `
		SELECT id, health_id, filename, file_url, uploaded_at
		FROM report_metadata
		WHERE health_id = $1
		ORDER BY uploaded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, string(healthID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a record by ID and reports ErrNotFound when nothing was deleted.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM report_metadata WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*model.DocumentRecord, error) {
	var (
		d        model.DocumentRecord
		healthID string
	)
	if err := s.Scan(
		&d.ID,
		&healthID,
		&d.Filename,
		&d.FileURL,
		&d.UploadedAt,
	); err != nil {
		return nil, err
	}
	d.HealthID = model.Identifier(healthID)
	return &d, nil
}
