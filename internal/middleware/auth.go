package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type Middleware struct {
	Verifier TokenVerifier
}

// NewMiddleware returns the auth middleware. A nil verifier accepts any
// bearer token and keys the session on a hash of it.
func NewMiddleware(verifier TokenVerifier) *Middleware {
	return &Middleware{Verifier: verifier}
}

// context key
type contextKey string

const (
	UIDKey     contextKey = "uid"
	TokenKey   contextKey = "token"
	SessionKey contextKey = "session"
)

// BearerAuth requires a bearer token and stores it, together with the
// session id derived from it, in the request context.
func (m *Middleware) BearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}
		tokenStr := parts[1]

		ctx := context.WithValue(r.Context(), TokenKey, tokenStr)
		var sessionID string
		if m.Verifier != nil {
			token, err := m.Verifier.VerifyIDToken(ctx, tokenStr)
			if err != nil {
				logger.FromContext(ctx).Warn("token verification failed", "error", err)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			sessionID = token.UID
			ctx = context.WithValue(ctx, UIDKey, token.UID)
			_, ctx = logger.With(ctx, "uid", token.UID)
		} else {
			sessionID = hashToken(tokenStr)
			_, ctx = logger.With(ctx, "session", sessionID[:12])
		}
		ctx = context.WithValue(ctx, SessionKey, sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Helpers to extract request identity

func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}

// Token returns the caller's bearer token for forwarding upstream.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionKey).(string)
	return id
}
