// Package inmemory implements the repositories on top of go-memdb. It backs the
// "memory" locker mode and the end-to-end tests.
package inmemory

import (
	"context"
	"fmt"
	"sort"

	memdb "github.com/hashicorp/go-memdb"

	"digilocker/internal/model"
	"digilocker/internal/repository"
)

const (
	documentsTable = "report_metadata"
	usersTable     = "users"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			documentsTable: {
				Name: documentsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"health_id": {
						Name:    "health_id",
						Indexer: &memdb.StringFieldIndex{Field: "HealthID"},
					},
				},
			},
			usersTable: {
				Name: usersTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"email": {
						Name:    "email",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
		},
	}
}

// DB holds the in-memory tables.
type DB struct {
	db *memdb.MemDB
}

// New creates an empty database.
func New() (*DB, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &DB{db: db}, nil
}

// Documents returns the report_metadata repository.
func (d *DB) Documents() *DocumentRepository {
	return &DocumentRepository{db: d.db}
}

// Users returns the users repository.
func (d *DB) Users() *UserRepository {
	return &UserRepository{db: d.db}
}

// DocumentRepository is a go-memdb implementation of repository.DocumentRepository.
type DocumentRepository struct {
	db *memdb.MemDB
}

var _ repository.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Create(_ context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(documentsTable, "id", rec.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repository.ErrDuplicate
	}

	stored := *rec
	if err := txn.Insert(documentsTable, &stored); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	txn.Commit()

	out := stored
	return &out, nil
}

func (r *DocumentRepository) FindByID(_ context.Context, id string) (*model.DocumentRecord, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(documentsTable, "id", id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	out := *raw.(*model.DocumentRecord)
	return &out, nil
}

func (r *DocumentRepository) ListByHealthID(_ context.Context, healthID model.Identifier) ([]model.DocumentRecord, error) {
	items := make([]model.DocumentRecord, 0)
	if healthID == "" {
		return items, nil
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(documentsTable, "health_id", string(healthID))
	if err != nil {
		return nil, err
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		items = append(items, *raw.(*model.DocumentRecord))
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].UploadedAt.Equal(items[j].UploadedAt) {
			return items[i].UploadedAt.After(items[j].UploadedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

func (r *DocumentRepository) Delete(_ context.Context, id string) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(documentsTable, "id", id)
	if err != nil {
		return err
	}
	if raw == nil {
		return repository.ErrNotFound
	}
	if err := txn.Delete(documentsTable, raw); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	txn.Commit()
	return nil
}

// UserRepository is a go-memdb implementation of repository.UserRepository.
type UserRepository struct {
	db *memdb.MemDB
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, u *model.User) (*model.User, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(usersTable, "email", u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, repository.ErrDuplicate
	}

	stored := *u
	if err := txn.Insert(usersTable, &stored); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	txn.Commit()

	out := stored
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(usersTable, "email", email)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	out := *raw.(*model.User)
	return &out, nil
}
