package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const (
	callerKey ctxKey = iota
	callerSlotKey
)

// callerSlot lets the outer logger see the caller ID that the inner
// authenticator resolves on a derived request context.
type callerSlot struct{ id string }

func withCallerSlot(r *http.Request) (*http.Request, *callerSlot) {
	slot := &callerSlot{}
	return r.WithContext(context.WithValue(r.Context(), callerSlotKey, slot)), slot
}

// CallerID returns the authenticated caller stored by the authenticator.
func CallerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerKey).(string)
	return id, ok && id != ""
}

// WithCallerID returns a context carrying callerID, as the authenticator
// would after verifying a token. Handlers read it back with CallerID.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	if slot, ok := ctx.Value(callerSlotKey).(*callerSlot); ok {
		slot.id = callerID
	}
	return context.WithValue(ctx, callerKey, callerID)
}

// Authenticator verifies HS256 bearer tokens issued by the identity
// provider. The token's subject claim is the caller ID.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator constructs an Authenticator for the shared HMAC secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify parses and validates a raw token and returns its subject.
func (a *Authenticator) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := a.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the caller ID in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "missing bearer token")
			return
		}
		callerID, err := a.Verify(raw)
		if err != nil {
			slog.DebugContext(r.Context(), "token rejected", "error", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeUnauthorized(w, "token expired")
				return
			}
			writeUnauthorized(w, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tripdiary"`)
	writeError(w, http.StatusUnauthorized, "unauthorized", msg)
}
