package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper turns an application error into a problem. It reports false when it does not recognise the error.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problems to gin responses.
type Responder struct {
	// BaseURI is prepended to relative problem type URIs.
	BaseURI string
	// Realm is advertised in the WWW-Authenticate challenge on 401 responses.
	Realm string
	// RequestID, when set, copies the correlation id into the "requestId" extension.
	RequestID func(*gin.Context) string
	// Logger records errors no mapper recognised.
	Logger *slog.Logger
}

// Respond sends the problem with the problem+json media type.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.BaseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = strings.TrimSuffix(r.BaseURI, "/") + problem.Type
	}
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	if r.RequestID != nil {
		if id := r.RequestID(c); id != "" {
			problem = problem.WithExtension("requestId", id)
		}
	}
	if problem.Status == http.StatusUnauthorized && r.Realm != "" {
		c.Header("WWW-Authenticate", fmt.Sprintf("Bearer realm=%q", r.Realm))
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError sends a problem carried by err, or a 500 that hides the cause.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, path := context.Background(), ""
	if c.Request != nil {
		ctx, path = c.Request.Context(), c.Request.URL.Path
	}
	logger.LogAttrs(ctx, slog.LevelError, "unhandled error",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	r.Respond(c, ErrInternal.WithDetail("the request could not be completed"))
}

// ChainedResponder consults its mappers in order before falling back to Responder.RespondError.
type ChainedResponder struct {
	Responder
	mappers []ErrorMapper
}

// NewChainedResponder creates a responder with custom error mappers.
func NewChainedResponder(baseURI string, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{
		Responder: Responder{BaseURI: baseURI},
		mappers:   mappers,
	}
}

// RespondError tries each mapper before falling back to default handling.
func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	r.Responder.RespondError(c, err)
}

// HTTPStatusFromError extracts HTTP status from an error if possible.
func HTTPStatusFromError(err error) int {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem.Status
	}
	return http.StatusInternalServerError
}
