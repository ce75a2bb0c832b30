package marketserver

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	userapp "github.com/Apurer/brix-market/internal/domains/users/application"
	userdomain "github.com/Apurer/brix-market/internal/domains/users/domain"
	userports "github.com/Apurer/brix-market/internal/domains/users/ports"
	apierrors "github.com/Apurer/brix-market/internal/shared/errors"
)

const principalKey = "marketserver.principal"

// Authenticator resolves bearer tokens into principals for protected routes.
type Authenticator struct {
	users  userports.Service
	logger *slog.Logger
}

// NewAuthenticator wires the user directory used to resolve tokens.
func NewAuthenticator(users userports.Service, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{users: users, logger: logger}
}

// Middleware rejects requests without a valid bearer token and stores the principal for handlers.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			a.abort(c, apierrors.ErrUnauthorized.WithDetail("bearer token required"))
			return
		}
		principal, err := a.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, userapp.ErrAuthentication) {
				a.logger.LogAttrs(c.Request.Context(), slog.LevelWarn, "bearer token rejected",
					slog.String("path", c.Request.URL.Path),
					slog.String("error", err.Error()),
				)
				a.abort(c, apierrors.ErrUnauthorized.WithDetail("invalid bearer token"))
				return
			}
			a.logger.LogAttrs(c.Request.Context(), slog.LevelError, "principal lookup failed",
				slog.String("path", c.Request.URL.Path),
				slog.String("error", err.Error()),
			)
			a.abort(c, apierrors.ErrInternal.WithDetail("could not resolve caller"))
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

func (a *Authenticator) abort(c *gin.Context, problem apierrors.ProblemDetail) {
	respondProblem(c, problem)
	c.Abort()
}

// PrincipalFrom returns the caller stored by the authenticator. Routes mounted without it see the zero principal.
func PrincipalFrom(c *gin.Context) userdomain.Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		return userdomain.Principal{}
	}
	principal, _ := value.(userdomain.Principal)
	return principal
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
