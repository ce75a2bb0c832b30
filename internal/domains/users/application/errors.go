package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/brix-market/internal/domains/users/domain"
	"github.com/Apurer/brix-market/internal/domains/users/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrAuthentication wraps every failure to resolve a caller identity.
	ErrAuthentication = errors.New("authentication failed")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyUsername) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidRole) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrInvalidToken) || errors.Is(err, ports.ErrMissingToken) {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return err
}
