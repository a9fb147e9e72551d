// Package navigator tracks which screen a client is on.
package navigator

import (
	"errors"
	"fmt"
	"sync"
)

// Screen is one of the client screens.
type Screen int

const (
	// Init asks for an identifier (or generates one).
	Init Screen = iota
	// Upload selects and submits files.
	Upload
	// Summary lists the stored documents.
	Summary
)

func (s Screen) String() string {
	switch s {
	case Init:
		return "init"
	case Upload:
		return "upload"
	case Summary:
		return "summary"
	}
	return fmt.Sprintf("Screen(%d)", int(s))
}

// ErrInvalidTransition is returned when an action is not allowed on the current screen.
var ErrInvalidTransition = errors.New("invalid screen transition")

// Navigator is the screen state machine. It starts on Init and has no final state.
type Navigator struct {
	mu     sync.Mutex
	screen Screen
}

func New() *Navigator { return &Navigator{screen: Init} }

func (n *Navigator) Screen() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen
}

// IdentityConfirmed moves Init to Upload.
func (n *Navigator) IdentityConfirmed() error { return n.move(Upload, Init) }

// ShowSummary moves Upload to Summary.
func (n *Navigator) ShowSummary() error { return n.move(Summary, Upload) }

// BackToUpload moves Summary to Upload.
func (n *Navigator) BackToUpload() error { return n.move(Upload, Summary) }

// SwitchIdentity returns to Init from Upload or Summary.
func (n *Navigator) SwitchIdentity() error { return n.move(Init, Upload, Summary) }

func (n *Navigator) move(to Screen, from ...Screen) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, f := range from {
		if n.screen == f {
			n.screen = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, n.screen, to)
}
