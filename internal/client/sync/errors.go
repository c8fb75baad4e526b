package sync

import (
	"errors"
	"fmt"
)

var (
	ErrSyncInProgress    = errors.New("sync already in progress")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrNotSignedIn       = errors.New("not signed in to the remote store")
)

// RemoteError wraps a failed remote step. It matches ErrRemoteUnavailable.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteUnavailable }
