package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/thing", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))
	return rec
}

func TestRespond_SetsProblemContentTypeAndInstance(t *testing.T) {
	rec := serve(t, func(c *gin.Context) { Respond(c, NewNotFoundProblem("order", "o-1")) })

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/thing", body.Instance)
	assert.Equal(t, "order", body.Extensions["resourceType"])
}

func TestRespond_RetryAfterHeader(t *testing.T) {
	rec := serve(t, func(c *gin.Context) { Respond(c, ErrServiceUnavailable.WithRetryAfter(2)) })

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestRespond_KeepsExplicitInstance(t *testing.T) {
	rec := serve(t, func(c *gin.Context) { Respond(c, ErrConflict.WithInstance("/v1/orders/o-1")) })

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/v1/orders/o-1", body.Instance)
}

func TestResponder_BadRequestAndValidationFailed(t *testing.T) {
	rec := serve(t, func(c *gin.Context) { DefaultResponder.BadRequest(c, "unexpected EOF") })
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeBadRequest, body.Type)
	assert.Equal(t, "unexpected EOF", body.Detail)

	rec = serve(t, func(c *gin.Context) {
		DefaultResponder.ValidationFailed(c, map[string]string{"limit": "not an integer"})
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body = ProblemDetail{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeValidation, body.Type)
	assert.Equal(t, map[string]any{"limit": "not an integer"}, body.Extensions["fields"])
}

func TestChainedResponder_UsesMappersThenFallsBack(t *testing.T) {
	sentinel := errors.New("stock gone")
	responder := NewChainedResponder("https://storefront.example", func(err error) (ProblemDetail, bool) {
		if errors.Is(err, sentinel) {
			return ErrInsufficientStock.WithDetail(err.Error()), true
		}
		return ProblemDetail{}, false
	})

	rec := serve(t, func(c *gin.Context) { responder.RespondError(c, sentinel) })
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://storefront.example"+TypeInsufficientStock, body.Type)

	rec = serve(t, func(c *gin.Context) { responder.RespondError(c, errors.New("db password is hunter2")) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestHTTPStatusFromError(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatusFromError(ErrForbidden))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromError(errors.New("x")))
}
