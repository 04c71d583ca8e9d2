package drafts

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-drafts/collections"
)

var (
	// ErrNotDraftable indicates a value that cannot be wrapped in a draft.
	ErrNotDraftable = errors.New("drafts: value is not draftable")
	// ErrDraftRevoked indicates an operation on a draft whose scope has ended.
	ErrDraftRevoked = errors.New("drafts: draft has been revoked")
	// ErrModifiedAndReturned indicates a recipe that both mutated its draft
	// and returned a replacement value.
	ErrModifiedAndReturned = errors.New("drafts: recipe must either mutate the draft or return a new value, not both")
	// ErrCircularReference indicates a value that contains itself.
	ErrCircularReference = errors.New("drafts: circular reference detected")
	// ErrBadArgument indicates an argument incompatible with the operation.
	ErrBadArgument = errors.New("drafts: bad argument")
	// ErrUnsupportedOperation indicates an operation the draft kind does not
	// support.
	ErrUnsupportedOperation = errors.New("drafts: unsupported operation")
	// ErrPathUnresolved indicates a patch path that cannot be walked.
	ErrPathUnresolved = errors.New("drafts: patch path cannot be resolved")
)

// ErrFrozenMutation indicates a write against a finalized, frozen container.
// It aliases the collections sentinel so errors.Is works across packages.
var ErrFrozenMutation = collections.ErrFrozen

// OpError captures the draft operation that failed alongside the cause.
type OpError struct {
	Op   string
	Kind Kind
	Key  any
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Key == nil {
		return fmt.Sprintf("drafts: %s on %s draft: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("drafts: %s %v on %s draft: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func opError(op string, kind Kind, key any, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Kind: kind, Key: key, Err: err}
}
