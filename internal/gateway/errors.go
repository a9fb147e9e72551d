package gateway

import "fmt"

// RemoteError reports a failed backend call. Op names the step that failed
// ("storage.put", "metadata.insert", "storage.delete", ...). Message is safe
// to show to a user; Err carries the cause.
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ConsistencyWarning reports a half-completed operation: storage and metadata
// no longer agree. Key is the object left behind (or already removed), RecordID
// the metadata row involved.
type ConsistencyWarning struct {
	Op       string
	Key      string
	RecordID string
	Err      error
}

func (w *ConsistencyWarning) Error() string {
	return fmt.Sprintf("%s left storage and metadata out of sync (key=%q record=%q): %v", w.Op, w.Key, w.RecordID, w.Err)
}

func (w *ConsistencyWarning) Unwrap() error { return w.Err }
