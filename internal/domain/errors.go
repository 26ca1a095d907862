package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the build. Adapters wrap these (together with the
// underlying cause) so callers can classify failures with errors.Is.
var (
	// ErrUnknownNuclide is recoverable: the offending record is skipped.
	ErrUnknownNuclide = errors.New("unknown nuclide")
	// ErrSourceUnavailable is fatal: raw data could not be fetched or parsed.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrStoreAccess is fatal: the table store could not be opened or written.
	ErrStoreAccess = errors.New("store access")
)

// UnknownNuclideError reports an identifier that cannot be resolved to or
// from a name. Input holds the text being encoded, ID the id being decoded.
type UnknownNuclideError struct {
	Input string
	ID    NuclideID
}

func (e *UnknownNuclideError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("unknown nuclide %q", e.Input)
	}
	return fmt.Sprintf("unknown nuclide id %d", e.ID)
}

// Is makes errors.Is(err, ErrUnknownNuclide) match.
func (e *UnknownNuclideError) Is(target error) bool {
	return target == ErrUnknownNuclide
}
