package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"digilocker/internal/gateway"
	"digilocker/internal/listing"
	"digilocker/internal/logging"
	"digilocker/internal/model"
	"digilocker/internal/repository"
	"digilocker/internal/storage"
	"digilocker/internal/workflow"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
)

// FileOutcome is the per-file part of an upload response.
type FileOutcome struct {
	Filename string                `json:"filename"`
	Document *model.DocumentRecord `json:"document,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// UploadResult is the service-level DTO for a submitted batch.
type UploadResult struct {
	HealthID  model.Identifier       `json:"health_id"`
	Results   []FileOutcome          `json:"results"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Documents []model.DocumentRecord `json:"documents"`
	// Stale is set when the listing could not be re-fetched after the upload.
	Stale bool `json:"stale,omitempty"`
}

// Link is a time-limited download link.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService defines the locker use cases exposed over HTTP.
// Every method is scoped to one health ID; records of other lockers are reported as not found.
type DocumentService interface {
	// Upload validates the batch and uploads it file by file, continuing past failures.
	Upload(ctx context.Context, id model.Identifier, files []model.FileHandle) (*UploadResult, error)

	// List returns the locker's documents, newest first.
	List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error)

	// Get returns a single document of the locker.
	Get(ctx context.Context, id model.Identifier, recordID string) (*model.DocumentRecord, error)

	// Link returns a time-limited link to a document of the locker.
	Link(ctx context.Context, id model.Identifier, recordID string) (*Link, error)

	// Delete removes a document from storage, then its record.
	Delete(ctx context.Context, id model.Identifier, recordID string) error

	// Open streams the object behind a public file URL.
	Open(ctx context.Context, fileURL string) (io.ReadCloser, storage.ObjectInfo, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	gw       gateway.Gateway
	maxBatch int
	linkTTL  time.Duration
	log      *slog.Logger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(gw gateway.Gateway, maxBatch int, linkTTL time.Duration, log *slog.Logger) DocumentService {
	if linkTTL <= 0 {
		linkTTL = 15 * time.Minute
	}
	if log == nil {
		log = logging.Discard()
	}
	return &documentService{gw: gw, maxBatch: maxBatch, linkTTL: linkTTL, log: log}
}

func (s *documentService) Upload(ctx context.Context, id model.Identifier, files []model.FileHandle) (*UploadResult, error) {
	if id.IsZero() {
		return nil, ErrIDRequired
	}
	view := listing.New(s.gw)
	wf := workflow.New(s.gw, view, s.maxBatch, s.log)
	if err := wf.SelectFiles(files); err != nil {
		return nil, err
	}
	batch, err := wf.Submit(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &UploadResult{
		HealthID:  id,
		Results:   make([]FileOutcome, len(batch.Outcomes)),
		Succeeded: batch.Succeeded(),
		Failed:    batch.Failed(),
		Documents: view.Snapshot(),
		Stale:     batch.RefreshErr != nil,
	}
	for i, o := range batch.Outcomes {
		res.Results[i] = FileOutcome{Filename: o.Name, Document: o.Record}
		if o.Err != nil {
			res.Results[i].Error = publicMessage(o.Err)
		}
	}
	return res, nil
}

func (s *documentService) List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error) {
	if id.IsZero() {
		return nil, ErrIDRequired
	}
	view := listing.New(s.gw)
	if err := view.Refresh(ctx, id); err != nil {
		return nil, err
	}
	return view.Snapshot(), nil
}

func (s *documentService) Get(ctx context.Context, id model.Identifier, recordID string) (*model.DocumentRecord, error) {
	if id.IsZero() || recordID == "" {
		return nil, ErrIDRequired
	}
	rec, err := s.gw.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.HealthID != id {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *documentService) Link(ctx context.Context, id model.Identifier, recordID string) (*Link, error) {
	rec, err := s.Get(ctx, id, recordID)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.linkTTL).UTC()
	u, err := s.gw.SignedURL(ctx, rec.FileURL, s.linkTTL)
	if err != nil {
		return nil, err
	}
	return &Link{URL: u, ExpiresAt: expires}, nil
}

func (s *documentService) Delete(ctx context.Context, id model.Identifier, recordID string) error {
	rec, err := s.Get(ctx, id, recordID)
	if err != nil {
		return err
	}
	if err := s.gw.Remove(ctx, rec.ID, rec.FileURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document %s: %w", rec.ID, err)
	}
	return nil
}

func (s *documentService) Open(ctx context.Context, fileURL string) (io.ReadCloser, storage.ObjectInfo, error) {
	rc, info, err := s.gw.Open(ctx, fileURL)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, ErrNotFound
		}
		return nil, storage.ObjectInfo{}, err
	}
	return rc, info, nil
}

// publicMessage renders a per-file failure without internal details.
func publicMessage(err error) string {
	var ve *model.ValidationError
	var re *gateway.RemoteError
	var cw *gateway.ConsistencyWarning
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &cw):
		return "stored file could not be registered and was left behind"
	case errors.As(err, &re) && re.Message != "":
		return re.Message
	default:
		return "upload failed"
	}
}
