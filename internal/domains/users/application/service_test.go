package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/brix-market/internal/domains/users/adapters/auth"
	usermemory "github.com/Apurer/brix-market/internal/domains/users/adapters/memory"
	"github.com/Apurer/brix-market/internal/domains/users/domain"
	"github.com/Apurer/brix-market/internal/domains/users/ports"
)

func newTestService(t *testing.T) (*Service, *usermemory.Repository) {
	t.Helper()
	repo := usermemory.NewRepository()
	codec, err := auth.NewHMACCodec("test-secret", auth.WithIssuer("brix-market"))
	require.NoError(t, err)
	return NewService(repo, codec), repo
}

func seedUser(t *testing.T, repo *usermemory.Repository, username string, role domain.Role) *domain.User {
	t.Helper()
	user, err := domain.NewUser(0, username, role)
	require.NoError(t, err)
	saved, err := repo.Save(context.Background(), user)
	require.NoError(t, err)
	return saved
}

func TestAuthenticate_ResolvesPrincipal(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "farmer-kim", domain.RoleUser)

	token, err := svc.IssueToken(context.Background(), "farmer-kim")
	require.NoError(t, err)

	principal, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, user.ID, principal.ID)
	require.Equal(t, domain.RoleUser, principal.Role)
	require.False(t, principal.IsAdmin())
}

func TestAuthenticate_UsesCurrentDirectoryRole(t *testing.T) {
	svc, repo := newTestService(t)
	user := seedUser(t, repo, "ops", domain.RoleUser)

	token, err := svc.IssueToken(context.Background(), "ops")
	require.NoError(t, err)

	user.Role = domain.RoleAdmin
	_, err = repo.Save(context.Background(), user)
	require.NoError(t, err)

	principal, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.True(t, principal.IsAdmin())
}

func TestAuthenticate_RejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrAuthentication)
	require.ErrorIs(t, err, ports.ErrInvalidToken)

	_, err = svc.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, ports.ErrMissingToken)
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	svc, _ := newTestService(t)
	codec, err := auth.NewHMACCodec("test-secret", auth.WithIssuer("brix-market"))
	require.NoError(t, err)
	token, err := codec.Issue(ports.TokenClaims{Subject: "ghost", UserID: 42, Role: "USER"})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	repo := usermemory.NewRepository()
	seedUser(t, repo, "late", domain.RoleUser)
	past := time.Now().Add(-48 * time.Hour)
	issuer, err := auth.NewHMACCodec("test-secret", auth.WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	token, err := issuer.Issue(ports.TokenClaims{Subject: "late"})
	require.NoError(t, err)

	verifier, err := auth.NewHMACCodec("test-secret")
	require.NoError(t, err)
	_, err = NewService(repo, verifier).Authenticate(context.Background(), token)
	require.ErrorIs(t, err, ports.ErrInvalidToken)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.IssueToken(context.Background(), "nobody")
	require.ErrorIs(t, err, ports.ErrNotFound)

	_, err = svc.IssueToken(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthenticate_ResolvesByUserIDClaim(t *testing.T) {
	svc, repo := newTestService(t)
	kim := seedUser(t, repo, "farmer-kim", domain.RoleUser)
	lee := seedUser(t, repo, "buyer-lee", domain.RoleUser)
	codec, err := auth.NewHMACCodec("test-secret", auth.WithIssuer("brix-market"))
	require.NoError(t, err)

	token, err := codec.Issue(ports.TokenClaims{Subject: "farmer-kim", UserID: kim.ID, Role: "USER"})
	require.NoError(t, err)
	principal, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, kim.ID, principal.ID)

	// a uid belonging to someone else must not borrow their account
	forged, err := codec.Issue(ports.TokenClaims{Subject: "farmer-kim", UserID: lee.ID, Role: "USER"})
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), forged)
	require.ErrorIs(t, err, ErrAuthentication)
}
