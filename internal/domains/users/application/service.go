package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Apurer/brix-market/internal/domains/users/domain"
	"github.com/Apurer/brix-market/internal/domains/users/ports"
)

// Service resolves bearer tokens into principals against the user directory.
type Service struct {
	repo   ports.Repository
	tokens ports.TokenCodec
}

func NewService(repo ports.Repository, tokens ports.TokenCodec) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate parses the token and re-reads the account so role changes apply immediately.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (domain.Principal, error) {
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return domain.Principal{}, mapError(err)
	}
	user, err := s.lookupSubject(ctx, claims)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("%w: unknown subject %q", ErrAuthentication, claims.Subject)
		}
		return domain.Principal{}, err
	}
	if user.Username != claims.Subject {
		return domain.Principal{}, fmt.Errorf("%w: subject %q does not match user id %d", ErrAuthentication, claims.Subject, claims.UserID)
	}
	principal := user.Principal()
	if !principal.Authenticated() {
		return domain.Principal{}, fmt.Errorf("%w: account %q has no usable role", ErrAuthentication, user.Username)
	}
	return principal, nil
}

// lookupSubject resolves the uid claim when present and the subject otherwise.
func (s *Service) lookupSubject(ctx context.Context, claims *ports.TokenClaims) (*domain.User, error) {
	if claims.UserID > 0 {
		return s.repo.GetByID(ctx, claims.UserID)
	}
	return s.repo.GetByUsername(ctx, claims.Subject)
}

// IssueToken mints a token for an existing user.
func (s *Service) IssueToken(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", mapError(domain.ErrEmptyUsername)
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(ports.TokenClaims{
		Subject: user.Username,
		UserID:  user.ID,
		Role:    string(user.Role),
	})
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

var _ ports.Service = (*Service)(nil)
