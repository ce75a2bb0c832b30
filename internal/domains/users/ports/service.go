package ports

import (
	"context"

	"github.com/Apurer/brix-market/internal/domains/users/domain"
)

// Service exposes principal resolution to transports.
type Service interface {
	// Authenticate resolves a raw bearer token into the caller identity.
	Authenticate(ctx context.Context, rawToken string) (domain.Principal, error)
	// IssueToken mints a bearer token for an existing user.
	IssueToken(ctx context.Context, username string) (string, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
