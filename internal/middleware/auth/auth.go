// Package auth verifies HS256 bearer tokens and carries the session
// subject through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"farmdash/internal/cache"
	applog "farmdash/internal/log"
)

// Issuer is stamped into and required on every token.
const Issuer = "farmdash"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Session is the verified identity of a request.
type Session struct {
	Subject   string
	ExpiresAt time.Time
}

type contextKey struct{}

// FromContext returns the request's session, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// Verifier checks tokens signed with a shared secret. Verified tokens are
// cached until they expire.
type Verifier struct {
	secret []byte
	now    func() time.Time
	cache  *cache.LRUCache[Session]
}

func NewVerifier(secret string, sessions *cache.LRUCache[Session]) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now, cache: sessions}
}

// WithClock overrides the expiry clock.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Sign issues a token for subject valid for ttl.
func (v *Verifier) Sign(subject string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature, issuer and expiry and returns the session.
func (v *Verifier) Verify(token string) (Session, error) {
	if v.cache != nil {
		if s, ok := v.cache.Get(token); ok {
			return s, nil
		}
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	s := Session{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if v.cache != nil {
		v.cache.SetUntil(token, s, s.ExpiresAt)
	}
	return s, nil
}

// Middleware authenticates the Authorization header. Without a header the
// request passes anonymously unless required is set. A present but invalid
// token is always rejected. reject writes the 401 response.
func (v *Verifier) Middleware(required bool, reject func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				if required {
					reject(w, r, ErrMissingToken)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			s, err := v.Verify(token)
			if err != nil {
				slog.WarnContext(r.Context(), "Rejected bearer token", "path", r.URL.Path, "error", err)
				reject(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, s)
			ctx = applog.Enrich(ctx, applog.FieldSubject, s.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
