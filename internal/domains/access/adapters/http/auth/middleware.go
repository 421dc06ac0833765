// Package auth authenticates HTTP callers with HS256 JWTs and enforces ring policies per route.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Apurer/storefront-api/internal/domains/access/domain"
	apierrors "github.com/Apurer/storefront-api/internal/shared/errors"
)

const (
	// CookieName is the cookie checked when no Authorization header is sent.
	CookieName = "token"

	principalKey = "access.principal"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Authorizer decides whether a principal may perform an operation.
type Authorizer interface {
	Authorize(ctx context.Context, principal domain.Principal, op domain.Operation) (domain.Decision, error)
}

// Claims is the token payload: sub carries the user id, role the role id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies tokens.
type Authenticator struct {
	secret []byte
	authz  Authorizer
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Authenticator)

func WithTokenTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func NewAuthenticator(secret []byte, authz Authorizer, opts ...Option) (*Authenticator, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if authz == nil {
		return nil, errors.New("authorizer is required")
	}
	a := &Authenticator{secret: secret, authz: authz, ttl: 12 * time.Hour, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// IssueToken signs a token for principal.
func (a *Authenticator) IssueToken(principal domain.Principal) (string, error) {
	if principal.UserID == "" || principal.RoleID == "" {
		return "", errors.New("principal requires user and role")
	}
	now := a.now()
	claims := Claims{
		Role: principal.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies raw and returns the principal it names.
func (a *Authenticator) Parse(raw string) (domain.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Role == "" {
		return domain.Principal{}, fmt.Errorf("%w: sub and role claims are required", ErrInvalidToken)
	}
	return domain.Principal{UserID: claims.Subject, RoleID: claims.Role}, nil
}

// Authenticate attaches the principal to the request when a valid token is present.
// Requests without a token pass through; Require decides whether one was needed.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, err := a.principalFromRequest(c); err == nil {
			c.Set(principalKey, principal)
		}
		c.Next()
	}
}

// Require rejects callers that lack a valid token (401) or whose ring is above op's ceiling (403).
func (a *Authenticator) Require(op domain.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			var err error
			principal, err = a.principalFromRequest(c)
			if err != nil {
				apierrors.Respond(c, apierrors.ErrUnauthorized.WithDetail(err.Error()))
				return
			}
			c.Set(principalKey, principal)
		}

		decision, err := a.authz.Authorize(c.Request.Context(), principal, op)
		if err != nil {
			a.log(c, slog.LevelError, "authorization failed", principal, op, slog.String("error", err.Error()))
			apierrors.Respond(c, apierrors.ErrInternal.WithDetail("authorization failed"))
			return
		}
		if !decision.Allowed {
			a.log(c, slog.LevelWarn, "access denied", principal, op, slog.Int("ring", int(decision.Ring)))
			apierrors.Respond(c, apierrors.ErrForbidden.
				WithDetail(fmt.Sprintf("role %q may not perform %s", principal.RoleID, op)).
				WithExtension("operation", string(op)))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c *gin.Context) (domain.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)
	return principal, ok
}

func (a *Authenticator) principalFromRequest(c *gin.Context) (domain.Principal, error) {
	raw := bearerToken(c.GetHeader("Authorization"))
	if raw == "" {
		if cookie, err := c.Cookie(CookieName); err == nil {
			raw = cookie
		}
	}
	if raw == "" {
		return domain.Principal{}, ErrMissingToken
	}
	return a.Parse(raw)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *Authenticator) log(c *gin.Context, level slog.Level, msg string, principal domain.Principal, op domain.Operation, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	attrs = append(attrs,
		slog.String("user.id", principal.UserID),
		slog.String("role.id", principal.RoleID),
		slog.String("operation", string(op)),
		slog.String("path", c.FullPath()))
	a.logger.LogAttrs(c.Request.Context(), level, msg, attrs...)
}
