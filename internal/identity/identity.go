// Package identity keeps the active health identifier of a client in a single
// durable slot. The slot is last-write-wins and holds no history.
package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"digilocker/internal/model"
)

// Slot is one durable key-value cell.
type Slot interface {
	// Load returns the stored value; ok is false when nothing was saved yet.
	Load(ctx context.Context) (value string, ok bool, err error)
	Save(ctx context.Context, value string) error
}

// Slots hands out one Slot per device.
type Slots interface {
	Slot(device string) Slot
}

// IdentityStore resolves, generates and adopts the active identifier.
type IdentityStore interface {
	Resolve(ctx context.Context) (model.Identifier, bool, error)
	Generate(ctx context.Context) (model.Identifier, error)
	Adopt(ctx context.Context, candidate string) (model.Identifier, error)
}

// Store is the IdentityStore backed by a Slot.
type Store struct {
	slot  Slot
	newID func() string
}

var _ IdentityStore = (*Store)(nil)

// New returns a Store over slot. A nil gen uses random UUIDs.
func New(slot Slot, gen func() string) *Store {
	if gen == nil {
		gen = uuid.NewString
	}
	return &Store{slot: slot, newID: gen}
}

// Resolve returns the persisted identifier, if any. A stored value that
// Adopt would reject (blank, path separators, control characters) counts as
// absent.
func (s *Store) Resolve(ctx context.Context) (model.Identifier, bool, error) {
	v, ok, err := s.slot.Load(ctx)
	if err != nil {
		return "", false, fmt.Errorf("load identifier: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	id, err := model.ParseIdentifier(v)
	if err != nil {
		return "", false, nil
	}
	return id, true, nil
}

// Generate creates a new identifier and persists it, replacing any previous one.
func (s *Store) Generate(ctx context.Context) (model.Identifier, error) {
	id := model.Identifier(s.newID())
	if err := s.slot.Save(ctx, id.String()); err != nil {
		return "", fmt.Errorf("save identifier: %w", err)
	}
	return id, nil
}

// Adopt persists a user supplied identifier after trimming it. Invalid input
// leaves the slot untouched.
func (s *Store) Adopt(ctx context.Context, candidate string) (model.Identifier, error) {
	id, err := model.ParseIdentifier(candidate)
	if err != nil {
		return "", err
	}
	if err := s.slot.Save(ctx, id.String()); err != nil {
		return "", fmt.Errorf("save identifier: %w", err)
	}
	return id, nil
}
