package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedRecord is returned when a metadata row coming back from the backend
// lacks a required field.
var ErrMalformedRecord = errors.New("malformed document record")

// DocumentRecord describes one uploaded file: where it lives and which locker owns it.
// Records are created by the gateway after a successful upload and are never
// modified afterwards, only deleted.
type DocumentRecord struct {
	ID         string     `json:"id"`
	HealthID   Identifier `json:"health_id"`
	Filename   string     `json:"filename"`
	FileURL    string     `json:"file_url"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

// Validate checks that every required field is populated.
func (d DocumentRecord) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: id is empty", ErrMalformedRecord)
	case d.HealthID == "":
		return fmt.Errorf("%w: health_id is empty", ErrMalformedRecord)
	case d.Filename == "":
		return fmt.Errorf("%w: filename is empty", ErrMalformedRecord)
	case d.FileURL == "":
		return fmt.Errorf("%w: file_url is empty", ErrMalformedRecord)
	case d.UploadedAt.IsZero():
		return fmt.Errorf("%w: uploaded_at is empty", ErrMalformedRecord)
	}
	return nil
}

// IsPDF reports whether the file can be previewed inline as a PDF.
func (d DocumentRecord) IsPDF() bool {
	return strings.HasSuffix(strings.ToLower(d.Filename), ".pdf")
}
