package ports

import (
	"context"
	"errors"

	"github.com/Apurer/brix-market/internal/domains/users/domain"
)

var ErrNotFound = errors.New("user not found")

// Repository is the user directory consulted when resolving bearer tokens.
type Repository interface {
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
