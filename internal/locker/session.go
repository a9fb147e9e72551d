// Package locker drives one client through the locker screens: identifier
// entry, upload and the document summary.
package locker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"digilocker/internal/gateway"
	"digilocker/internal/identity"
	"digilocker/internal/listing"
	"digilocker/internal/logging"
	"digilocker/internal/model"
	"digilocker/internal/navigator"
	"digilocker/internal/storage"
	"digilocker/internal/workflow"
)

var (
	// ErrWrongScreen is returned for actions that the current screen does not offer.
	ErrWrongScreen = errors.New("action not available on this screen")
	// ErrNoIdentity is returned when no identifier is active.
	ErrNoIdentity = errors.New("no active health id")
	// ErrForeignRecord is returned when a record of another locker is passed in.
	ErrForeignRecord = errors.New("document belongs to another locker")
)

// Options tune a Session.
type Options struct {
	MaxBatch int
	Logger   *slog.Logger
}

// Session is the state of one client. It is safe for concurrent use, although
// a client normally issues one action at a time.
type Session struct {
	ids  identity.IdentityStore
	gw   gateway.Gateway
	nav  *navigator.Navigator
	wf   *workflow.Workflow
	view *listing.View
	log  *slog.Logger

	mu     sync.Mutex
	active model.Identifier
}

// NewSession wires a session over an identity store and a gateway.
func NewSession(ids identity.IdentityStore, gw gateway.Gateway, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	view := listing.New(gw)
	return &Session{
		ids:  ids,
		gw:   gw,
		nav:  navigator.New(),
		wf:   workflow.New(gw, view, opts.MaxBatch, log),
		view: view,
		log:  log,
	}
}

// Start restores a persisted identifier. When one exists the session moves to
// the upload screen and prefetches its listing; a failed prefetch is returned
// but does not undo the restore.
func (s *Session) Start(ctx context.Context) (bool, error) {
	id, ok, err := s.ids.Resolve(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := s.activate(id); err != nil {
		return false, err
	}
	s.log.Info("identity_restored", "health_id", id.String())
	return true, s.view.Refresh(ctx, id)
}

// GenerateIdentity creates a fresh identifier and opens its locker.
func (s *Session) GenerateIdentity(ctx context.Context) (model.Identifier, error) {
	if s.nav.Screen() != navigator.Init {
		return "", ErrWrongScreen
	}
	id, err := s.ids.Generate(ctx)
	if err != nil {
		return "", err
	}
	if err := s.activate(id); err != nil {
		return "", err
	}
	s.log.Info("identity_generated", "health_id", id.String())
	return id, nil
}

// AdoptIdentity opens the locker of a user supplied identifier.
func (s *Session) AdoptIdentity(ctx context.Context, candidate string) (model.Identifier, error) {
	if s.nav.Screen() != navigator.Init {
		return "", ErrWrongScreen
	}
	id, err := s.ids.Adopt(ctx, candidate)
	if err != nil {
		return "", err
	}
	if err := s.activate(id); err != nil {
		return "", err
	}
	s.log.Info("identity_adopted", "health_id", id.String())
	return id, nil
}

// SwitchIdentity goes back to identifier entry. The persisted identifier is
// kept until another one is generated or adopted.
func (s *Session) SwitchIdentity() error {
	if err := s.nav.SwitchIdentity(); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = ""
	s.mu.Unlock()
	s.view.Reset()
	return nil
}

func (s *Session) activate(id model.Identifier) error {
	if err := s.nav.IdentityConfirmed(); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	s.view.Reset()
	return nil
}

// SelectFiles replaces the upload batch.
func (s *Session) SelectFiles(files []model.FileHandle) error {
	if s.nav.Screen() != navigator.Upload {
		return ErrWrongScreen
	}
	return s.wf.SelectFiles(files)
}

// Selected returns the current batch.
func (s *Session) Selected() []model.FileHandle { return s.wf.Batch() }

// Upload submits the batch for the active identifier.
func (s *Session) Upload(ctx context.Context) (*workflow.BatchResult, error) {
	if s.nav.Screen() != navigator.Upload {
		return nil, ErrWrongScreen
	}
	return s.wf.Submit(ctx, s.Identifier())
}

// ShowSummary moves to the summary screen and fetches the listing.
func (s *Session) ShowSummary(ctx context.Context) error {
	if err := s.nav.ShowSummary(); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// BackToUpload returns from the summary to the upload screen.
func (s *Session) BackToUpload() error {
	return s.nav.BackToUpload()
}

// Refresh re-fetches the listing of the active identifier.
func (s *Session) Refresh(ctx context.Context) error {
	id := s.Identifier()
	if id.IsZero() {
		return ErrNoIdentity
	}
	return s.view.Refresh(ctx, id)
}

// Delete removes one document of the active locker and refreshes the listing.
func (s *Session) Delete(ctx context.Context, rec model.DocumentRecord) error {
	if err := s.ownRecord(rec); err != nil {
		return err
	}
	err := s.view.DeleteOne(ctx, rec)
	var stale *listing.StaleError
	switch {
	case err == nil:
	case errors.As(err, &stale):
		s.log.Warn("document_list_stale", "record_id", rec.ID, "error", stale.Err.Error())
	default:
		s.log.Warn("document_delete_failed", "record_id", rec.ID, "error", err.Error())
	}
	return err
}

// Open streams the bytes of a document.
func (s *Session) Open(ctx context.Context, rec model.DocumentRecord) (io.ReadCloser, storage.ObjectInfo, error) {
	if err := s.ownRecord(rec); err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return s.gw.Open(ctx, rec.FileURL)
}

// Link returns a time-limited link to a document.
func (s *Session) Link(ctx context.Context, rec model.DocumentRecord, ttl time.Duration) (string, error) {
	if err := s.ownRecord(rec); err != nil {
		return "", err
	}
	return s.gw.SignedURL(ctx, rec.FileURL, ttl)
}

func (s *Session) ownRecord(rec model.DocumentRecord) error {
	id := s.Identifier()
	if id.IsZero() {
		return ErrNoIdentity
	}
	if rec.HealthID != id {
		return fmt.Errorf("%w: %s", ErrForeignRecord, rec.ID)
	}
	return nil
}

// Documents returns the listing snapshot of the active identifier.
func (s *Session) Documents() []model.DocumentRecord { return s.view.Snapshot() }

// Screen returns the current screen.
func (s *Session) Screen() navigator.Screen { return s.nav.Screen() }

// Identifier returns the active identifier, empty on the entry screen.
func (s *Session) Identifier() model.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
