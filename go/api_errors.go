package storefrontserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	accessapp "github.com/Apurer/storefront-api/internal/domains/access/application"
	accessports "github.com/Apurer/storefront-api/internal/domains/access/ports"
	invapp "github.com/Apurer/storefront-api/internal/domains/inventory/application"
	invports "github.com/Apurer/storefront-api/internal/domains/inventory/ports"
	salesdomain "github.com/Apurer/storefront-api/internal/domains/sales/domain"
	apierrors "github.com/Apurer/storefront-api/internal/shared/errors"
)

// RetryAfterSeconds is the hint sent with 503 responses.
const RetryAfterSeconds = 1

var responder = apierrors.NewChainedResponder("", salesProblem, inventoryProblem, accessProblem)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondError maps domain errors onto RFC 7807 responses.
func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func badRequest(c *gin.Context, err error) {
	responder.BadRequest(c, err.Error())
}

func salesProblem(err error) (apierrors.ProblemDetail, bool) {
	var (
		validation *salesdomain.ValidationError
		notFound   *salesdomain.NotFoundError
		shortage   *salesdomain.InsufficientStockError
	)
	switch {
	case errors.As(err, &shortage):
		return apierrors.ErrInsufficientStock.
			WithDetail(err.Error()).
			WithExtension("shortfalls", shortage.Shortfalls), true
	case errors.As(err, &validation):
		return apierrors.NewValidationProblem(map[string]string{validation.Field: validation.Reason}).
			WithDetail(err.Error()), true
	case errors.As(err, &notFound):
		return apierrors.NewNotFoundProblem(notFound.Resource, notFound.ID), true
	case errors.Is(err, salesdomain.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyConflict.WithDetail(err.Error()), true
	case errors.Is(err, salesdomain.ErrValidation):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, salesdomain.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, salesdomain.ErrTransient):
		return apierrors.ErrServiceUnavailable.
			WithDetail("the request could not be completed in time; retry later").
			WithRetryAfter(RetryAfterSeconds), true
	case errors.Is(err, salesdomain.ErrInternal):
		return apierrors.ErrInternal.WithDetail("unexpected error"), true
	}
	return apierrors.ProblemDetail{}, false
}

func inventoryProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, invapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, invports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, invports.ErrDuplicateSKU):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func accessProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, accessapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, accessports.ErrDuplicateRole):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, accessports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// invalidParam reports a malformed path or query parameter as a field error.
func invalidParam(c *gin.Context, name string, err error) {
	responder.ValidationFailed(c, map[string]string{name: err.Error()})
}
