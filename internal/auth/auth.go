// Package auth issues and validates the demo's HMAC-signed session
// tokens and provides the HTTP middleware gating /api/ routes. The
// token is the browser's proof of login; there is no backend account
// system behind it.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// TokenHeader carries the session token on API requests.
const TokenHeader = "X-Session-Token"

// MaxTokenAge is how long a session token stays valid.
const MaxTokenAge = 24 * time.Hour

// ContextKey is the key type for context values
type ContextKey string

// EmailKey is the context key for the logged-in email
const EmailKey ContextKey = "email"

// IssueToken builds a session token for an email:
// base64url(email) | unix issue time | hex(HMAC-SHA256(secret, payload)).
func IssueToken(secret, email string, now time.Time) string {
	payload := fmt.Sprintf("%s|%d", base64.RawURLEncoding.EncodeToString([]byte(email)), now.Unix())
	return payload + "|" + sign(secret, payload)
}

// ValidateToken checks a token's signature and age and returns the
// email it was issued for.
func ValidateToken(secret, token string, now time.Time) (string, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed token")
	}
	payload := parts[0] + "|" + parts[1]

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return "", fmt.Errorf("invalid signature")
	}

	issuedAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid issue time")
	}
	age := now.Unix() - issuedAt
	if age < 0 || age > int64(MaxTokenAge.Seconds()) {
		return "", fmt.Errorf("token expired")
	}

	emailBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid email encoding")
	}
	email := string(emailBytes)
	if email == "" {
		return "", fmt.Errorf("empty email")
	}
	return email, nil
}

func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// Middleware validates the session token on /api/ routes and puts the
// email into the request context. Login, ping and static files pass
// through unauthenticated.
func Middleware(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/api/ping" || r.URL.Path == "/api/login" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(TokenHeader)
		if token == "" {
			http.Error(w, "Unauthorized: missing "+TokenHeader+" header", http.StatusUnauthorized)
			return
		}

		email, err := ValidateToken(secret, token, time.Now())
		if err != nil {
			log.Printf("Auth failed: %v", err)
			http.Error(w, "Unauthorized: invalid session token", http.StatusUnauthorized)
			return
		}

		ctx := contextWithEmail(r.Context(), email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// contextWithEmail adds the email to the context
func contextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, EmailKey, email)
}

// EmailFromContext retrieves the logged-in email from the context
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
