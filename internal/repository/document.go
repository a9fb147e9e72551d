package repository

import (
	"context"

	"digilocker/internal/model"
)

// DocumentRepository defines data access for the report_metadata table.
// Implementations only persist; ownership checks live in the gateway and service.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error)

	// FindByID returns a record by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.DocumentRecord, error)

	// ListByHealthID returns every record of a locker, newest first.
	// The result is never nil.
	ListByHealthID(ctx context.Context, healthID model.Identifier) ([]model.DocumentRecord, error)

	// Delete removes a record by ID. It returns ErrNotFound when no row was deleted.
	Delete(ctx context.Context, id string) error
}
