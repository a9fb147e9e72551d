// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, inmemory) inside this directory.
package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("record already exists")
)
