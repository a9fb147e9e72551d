// Package listing holds the document list of the active identifier and the
// delete action on it.
package listing

import (
	"context"
	"fmt"
	"sync"

	"digilocker/internal/model"
)

// Gateway is the part of the document gateway the view needs.
type Gateway interface {
	List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error)
	Remove(ctx context.Context, recordID, fileURL string) error
}

// View is the snapshot of the last successful fetch for one identifier.
type View struct {
	mu       sync.Mutex
	gw       Gateway
	id       model.Identifier
	snapshot []model.DocumentRecord
	fetched  bool
}

// New returns an empty view.
func New(gw Gateway) *View {
	return &View{gw: gw}
}

// Refresh fetches the documents of id. Switching to another id drops the
// previous snapshot first; a failed fetch keeps the current one.
func (v *View) Refresh(ctx context.Context, id model.Identifier) error {
	v.mu.Lock()
	if id != v.id {
		v.id = id
		v.snapshot = nil
		v.fetched = false
	}
	v.mu.Unlock()

	recs, err := v.gw.List(ctx, id)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Another Refresh switched identifiers meanwhile; this result is stale.
	if v.id != id {
		return nil
	}
	v.snapshot = recs
	v.fetched = true
	return nil
}

// StaleError reports a delete that went through while the follow-up fetch did
// not. The snapshot no longer shows the deleted record but may miss other changes.
type StaleError struct {
	RecordID string
	Err      error
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("document %s deleted, list not refreshed: %v", e.RecordID, e.Err)
}

func (e *StaleError) Unwrap() error { return e.Err }

// DeleteOne removes rec and refreshes the listing. When the removal fails the
// snapshot is left as it was; when only the refresh fails a *StaleError is
// returned.
func (v *View) DeleteOne(ctx context.Context, rec model.DocumentRecord) error {
	if err := v.gw.Remove(ctx, rec.ID, rec.FileURL); err != nil {
		return err
	}
	if err := v.Refresh(ctx, rec.HealthID); err != nil {
		v.drop(rec)
		return &StaleError{RecordID: rec.ID, Err: err}
	}
	return nil
}

func (v *View) drop(rec model.DocumentRecord) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id != rec.HealthID {
		return
	}
	kept := v.snapshot[:0:0]
	for _, r := range v.snapshot {
		if r.ID != rec.ID {
			kept = append(kept, r)
		}
	}
	v.snapshot = kept
}

// Reset forgets the identifier and its snapshot.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.id = ""
	v.snapshot = nil
	v.fetched = false
}

// Snapshot returns a copy of the current records, newest first.
func (v *View) Snapshot() []model.DocumentRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]model.DocumentRecord, len(v.snapshot))
	copy(out, v.snapshot)
	return out
}

// Identifier returns the identifier the snapshot belongs to.
func (v *View) Identifier() model.Identifier {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id
}

// Fetched reports whether the snapshot holds a successful fetch.
func (v *View) Fetched() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetched
}
