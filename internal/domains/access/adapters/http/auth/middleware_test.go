package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/storefront-api/internal/domains/access/adapters/memory"
	"github.com/Apurer/storefront-api/internal/domains/access/application"
	"github.com/Apurer/storefront-api/internal/domains/access/domain"
)

var testSecret = []byte("test-secret")

func newTestAuthenticator(t *testing.T, opts ...Option) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(testSecret, application.NewService(memory.NewRepository()), opts...)
	require.NoError(t, err)
	return a
}

func guardedRouter(a *Authenticator, op domain.Operation) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(a.Authenticate())
	router.GET("/guarded", a.Require(op), func(c *gin.Context) {
		principal, _ := PrincipalFrom(c)
		c.String(http.StatusOK, principal.UserID)
	})
	return router
}

func TestRequire(t *testing.T) {
	a := newTestAuthenticator(t)
	router := guardedRouter(a, domain.OpPlaceOrder)

	cashier, err := a.IssueToken(domain.Principal{UserID: "c-1", RoleID: "cashier"})
	require.NoError(t, err)
	customer, err := a.IssueToken(domain.Principal{UserID: "u-1", RoleID: "user"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer allowed", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+cashier) }, http.StatusOK},
		{"cookie allowed", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: cashier}) }, http.StatusOK},
		{"ring too high", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+customer) }, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequire_UnknownRoleIsForbidden(t *testing.T) {
	a := newTestAuthenticator(t)
	token, err := a.IssueToken(domain.Principal{UserID: "x", RoleID: "ghost"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guardedRouter(a, domain.OpReadOrder).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequire_UnknownOperationIsServerError(t *testing.T) {
	a := newTestAuthenticator(t)
	token, err := a.IssueToken(domain.Principal{UserID: "x", RoleID: "admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	guardedRouter(a, "orders.teleport").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParse_RejectsExpiredAndForeignTokens(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := newTestAuthenticator(t, WithClock(func() time.Time { return issued }), WithTokenTTL(time.Hour))
	token, err := issuer.IssueToken(domain.Principal{UserID: "u", RoleID: "admin"})
	require.NoError(t, err)

	principal, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: "u", RoleID: "admin"}, principal)

	later := newTestAuthenticator(t, WithClock(func() time.Time { return issued.Add(2 * time.Hour) }))
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = issuer.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthenticator_RequiresSecret(t *testing.T) {
	_, err := NewAuthenticator(nil, application.NewService(memory.NewRepository()))
	assert.Error(t, err)
}
