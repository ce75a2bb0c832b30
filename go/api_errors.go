package marketserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	orderapp "github.com/Apurer/brix-market/internal/domains/orders/application"
	apierrors "github.com/Apurer/brix-market/internal/shared/errors"
)

// Realm is advertised in bearer challenges.
const Realm = "brix-market"

var responder = newResponder()

func newResponder() *apierrors.ChainedResponder {
	r := apierrors.NewChainedResponder("", orderErrorMapper)
	r.Realm = Realm
	r.RequestID = RequestID
	return r
}

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondServiceError renders an engine failure as RFC 7807. Unclassified errors become 500.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func orderErrorMapper(err error) (apierrors.ProblemDetail, bool) {
	var base apierrors.ProblemDetail
	switch orderapp.KindOf(err) {
	case orderapp.ErrNotFound:
		base = apierrors.ErrNotFound
	case orderapp.ErrForbidden:
		base = apierrors.ErrForbidden
	case orderapp.ErrInvalidState:
		base = apierrors.ErrInvalidState
	case orderapp.ErrValidation:
		base = apierrors.ErrValidation
	case orderapp.ErrUnauthenticated:
		base = apierrors.ErrUnauthorized
	case orderapp.ErrConflict:
		base = apierrors.ErrConflict
	default:
		return apierrors.ProblemDetail{}, false
	}
	problem := base.WithDetail(err.Error())
	var orderErr *orderapp.OrderError
	if errors.As(err, &orderErr) {
		if orderErr.OrderID > 0 {
			problem = problem.WithExtension("orderId", orderErr.OrderID)
		}
		if orderErr.Status != "" {
			problem = problem.WithExtension("status", string(orderErr.Status))
		}
		if reason := orderErr.Reason(); reason != "" {
			problem = problem.WithExtension("reason", reason)
		}
	}
	return problem, true
}
