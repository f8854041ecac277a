// Package auth verifies the bearer tokens issued to back-office staff and
// scopes each request to the tenant named in the token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/payadvice/internal/http/respond"
	"github.com/MrJamesThe3rd/payadvice/internal/tenant"
)

const RoleAdmin = "admin"

var ErrInvalidToken = errors.New("invalid token")

// Claims are carried by every API token.
type Claims struct {
	UserID string        `json:"user_id"`
	Tenant tenant.Tenant `json:"tenant"`
	Role   string        `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// FromContext returns the claims of the authenticated caller.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// WithClaims attaches claims to ctx. Handlers read them with FromContext.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Tenant returns the caller's tenant, or "" for an unauthenticated context.
func Tenant(ctx context.Context) tenant.Tenant {
	if c, ok := FromContext(ctx); ok {
		return c.Tenant
	}

	return ""
}

// Authenticator signs and verifies HS256 tokens with a shared secret.
type Authenticator struct {
	secret []byte
}

func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a token for the claims, valid for ttl.
func (a *Authenticator) Issue(c Claims, ttl time.Duration) (string, error) {
	if !c.Tenant.Valid() {
		return "", fmt.Errorf("%w: unknown tenant %q", ErrInvalidToken, c.Tenant)
	}

	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature and expiry of a token and returns its claims.
func (a *Authenticator) Parse(raw string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !claims.Tenant.Valid() {
		return nil, fmt.Errorf("%w: unknown tenant %q", ErrInvalidToken, claims.Tenant)
	}

	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims on the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			respond.Fail(w, http.StatusUnauthorized, "No token provided or invalid token format")
			return
		}

		claims, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				respond.Fail(w, http.StatusUnauthorized, "Token has expired")
				return
			}

			respond.Fail(w, http.StatusUnauthorized, "Invalid token")

			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole only lets callers holding one of roles through.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := FromContext(r.Context())
			if !ok {
				respond.Fail(w, http.StatusUnauthorized, "UnAuthorized Access")
				return
			}

			for _, role := range roles {
				if c.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respond.Fail(w, http.StatusForbidden, "UnAuthorized Access")
		})
	}
}
