package colgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/store"
)

var (
	// ErrNotFound unifies "missing table" and "missing column" failures.
	//
	// The original underlying error can be accessed via errors.Unwrap / As.
	ErrNotFound = errors.New("not found")
)

// translateError normalizes errors crossing the facade boundary.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	var ut *store.ErrUnknownTable
	if errors.As(err, &ut) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var uc *schema.ErrUnknownColumn
	if errors.As(err, &uc) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
