package client

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConnection marks failures to reach, authenticate against or list torrents from the client.
	ErrConnection = errors.New("client connection failed")

	// ErrRemoteOperation marks a failed stop or remove call.
	ErrRemoteOperation = errors.New("remote operation failed")
)

func connectionError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConnection, op, err)
}

func remoteOperationError(op string, ids []string, err error) error {
	return fmt.Errorf("%w: %s %v: %w", ErrRemoteOperation, op, ids, err)
}

var errNotRemoved = errors.New("client reported torrent was not removed")

// PartialRemoveError is returned when a remove batch failed after some of its ids were already removed.
type PartialRemoveError struct {
	Removed []string
	Err     error
}

func (e *PartialRemoveError) Error() string {
	return fmt.Sprintf("removed %v before failing: %v", e.Removed, e.Err)
}

func (e *PartialRemoveError) Unwrap() error {
	return e.Err
}

func (e *PartialRemoveError) RemovedIDs() []string {
	return e.Removed
}
