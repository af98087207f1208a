package service

import (
	"errors"
	"fmt"

	"github.com/nurpe/dealflow/internal/pipeline"
	"github.com/nurpe/dealflow/internal/repository"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidInput          = errors.New("invalid input")
	ErrConflict              = errors.New("already exists")
	ErrTransitionNotAllowed  = pipeline.ErrTransitionNotAllowed
	ErrPortalDisabled        = errors.New("portal disabled")
	ErrPortalUnauthorized    = errors.New("portal password mismatch")
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	ErrStorageUnavailable    = errors.New("document storage unavailable")
)

// translate maps repository errors onto service sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case repository.IsNotFound(err):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%w: %s is still in use", ErrConflict, what)
	default:
		return err
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}
