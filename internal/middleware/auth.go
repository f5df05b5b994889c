package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/config"
)

const playerIDKey contextKey = "player_id"

var errNoPlayer = errors.New("token carries no player id")

// Auth resolves the calling player from an HS256 bearer token whose subject
// is the player's UUID. Requests without a valid token are rejected with a
// connect-style unauthenticated error.
func Auth(cfg *config.Config, logger zerolog.Logger) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthenticated(w, "missing bearer token")
				return
			}
			playerID, err := ParseToken(secret, raw)
			if err != nil {
				logger.Debug().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("rejected token")
				unauthenticated(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), playerIDKey, playerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerIDFromContext returns the player resolved by Auth.
func PlayerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(playerIDKey).(uuid.UUID)
	return id, ok
}

// WithPlayerID stores id as the authenticated player.
func WithPlayerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, playerIDKey, id)
}

// ParseToken verifies raw and returns the player id in its subject.
func ParseToken(secret []byte, raw string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject %q: %w", claims.Subject, errNoPlayer)
	}
	if id == uuid.Nil {
		return uuid.Nil, errNoPlayer
	}
	return id, nil
}

// IssueToken signs a token for playerID that expires after ttl.
func IssueToken(secret []byte, playerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   playerID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func unauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"code":"unauthenticated","message":%q}`, msg)
}
