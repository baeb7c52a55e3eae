package rbac

import (
	"errors"
	"fmt"

	"github.com/fleetline/backoffice/internal/platform/httpx"
)

// HTTPError tags registry errors with the matching httpx sentinel so
// httpx.RespondError renders the right status.
func HTTPError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, ErrDuplicate):
		return fmt.Errorf("%w: %w", httpx.ErrDuplicate, err)
	case errors.Is(err, ErrInvalid):
		return fmt.Errorf("%w: %w", httpx.ErrValidation, err)
	case errors.Is(err, ErrReservedRole), errors.Is(err, ErrRoleInUse):
		return fmt.Errorf("%w: %w", httpx.ErrConflict, err)
	default:
		return err
	}
}
