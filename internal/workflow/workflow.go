// Package workflow validates a batch of selected files and uploads it one file
// at a time, continuing past failures.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"digilocker/internal/logging"
	"digilocker/internal/model"
)

// MaxBatch is the default number of files one upload may carry.
const MaxBatch = 5

var (
	// ErrBatchTooLarge is returned by SelectFiles when more than the allowed number of files is picked.
	ErrBatchTooLarge = errors.New("too many files selected")
	// ErrBusy is returned while an upload is in progress.
	ErrBusy = errors.New("upload in progress")
)

// State of the upload workflow.
type State int

const (
	Idle State = iota
	Validating
	Uploading
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Uploading:
		return "uploading"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PreconditionError is returned by Submit when there is nothing to upload or
// no identifier to upload for.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return "cannot submit: " + e.Reason }

// Uploader stores one file for an identifier.
type Uploader interface {
	Upload(ctx context.Context, id model.Identifier, file model.FileHandle) (*model.DocumentRecord, error)
}

// Refresher re-fetches the listing of an identifier.
type Refresher interface {
	Refresh(ctx context.Context, id model.Identifier) error
}

// FileOutcome is the result of one file of a batch. Exactly one of Record and Err is set.
type FileOutcome struct {
	Name   string
	Record *model.DocumentRecord
	Err    error
}

// BatchResult reports every file of a submitted batch, in selection order.
type BatchResult struct {
	HealthID model.Identifier
	Outcomes []FileOutcome
	// RefreshErr is set when the listing could not be re-fetched after the batch.
	RefreshErr error
}

// Succeeded counts the files that were stored and registered.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the files that did not make it.
func (r *BatchResult) Failed() int { return len(r.Outcomes) - r.Succeeded() }

// Workflow holds the selected batch between selection and submission.
type Workflow struct {
	mu       sync.Mutex
	state    State
	batch    []model.FileHandle
	maxBatch int

	uploader Uploader
	listing  Refresher
	log      *slog.Logger
}

// New returns an idle Workflow. maxBatch <= 0 uses MaxBatch; listing may be nil.
func New(uploader Uploader, listing Refresher, maxBatch int, log *slog.Logger) *Workflow {
	if maxBatch <= 0 {
		maxBatch = MaxBatch
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Workflow{uploader: uploader, listing: listing, maxBatch: maxBatch, log: log}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Batch returns a copy of the selected files.
func (w *Workflow) Batch() []model.FileHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.FileHandle(nil), w.batch...)
}

// SelectFiles replaces the batch. An oversized selection is rejected and the
// previous batch is kept.
func (w *Workflow) SelectFiles(files []model.FileHandle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Uploading {
		return ErrBusy
	}

	w.state = Validating
	defer func() { w.state = Idle }()

	if len(files) > w.maxBatch {
		return fmt.Errorf("%w: %w", ErrBatchTooLarge, &model.ValidationError{
			Field:  "files",
			Reason: fmt.Sprintf("%d selected, at most %d allowed", len(files), w.maxBatch),
		})
	}
	for i, f := range files {
		if f.Name == "" {
			return &model.ValidationError{Field: "files", Reason: fmt.Sprintf("file #%d has no name", i+1)}
		}
	}
	w.batch = append([]model.FileHandle(nil), files...)
	return nil
}

// Submit uploads the batch for id strictly in selection order, one file at a
// time. A failed file is recorded in its outcome and the loop moves on. The
// batch is cleared and the listing refreshed afterwards; the returned error is
// only ever a precondition failure.
func (w *Workflow) Submit(ctx context.Context, id model.Identifier) (*BatchResult, error) {
	w.mu.Lock()
	if w.state == Uploading {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if id.IsZero() {
		w.mu.Unlock()
		return nil, &PreconditionError{Reason: "no health id"}
	}
	if len(w.batch) == 0 {
		w.mu.Unlock()
		return nil, &PreconditionError{Reason: "no files selected"}
	}
	batch := w.batch
	w.state = Uploading
	w.mu.Unlock()

	res := &BatchResult{HealthID: id, Outcomes: make([]FileOutcome, 0, len(batch))}
	for _, f := range batch {
		rec, err := w.uploader.Upload(ctx, id, f)
		if err != nil {
			w.log.Warn("batch_file_failed", "health_id", id.String(), "filename", f.Name, "error", err.Error())
		}
		res.Outcomes = append(res.Outcomes, FileOutcome{Name: f.Name, Record: rec, Err: err})
	}

	w.mu.Lock()
	w.batch = nil
	w.state = Done
	w.mu.Unlock()

	if w.listing != nil {
		res.RefreshErr = w.listing.Refresh(ctx, id)
	}
	w.log.Info("batch_submitted", "health_id", id.String(), "succeeded", res.Succeeded(), "failed", res.Failed())
	return res, nil
}
