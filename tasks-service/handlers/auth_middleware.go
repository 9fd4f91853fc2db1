package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/chepyr/go-kanban/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "user_id"

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

/*
Verify HS256 tokens issued by the auth service.
Put the user id from the "sub" claim into the request context.
Browsers cannot set headers on a WebSocket handshake, so a token query
parameter is accepted when the header is absent.
Tokens whose "jti" was logged out are rejected when Revocations is set.
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			shared.SendError(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims,
			func(token *jwt.Token) (any, error) { return h.JWTSecret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			shared.SendError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			shared.SendError(w, "Invalid token claims", http.StatusUnauthorized)
			return
		}

		if h.Revocations != nil {
			jti, _ := claims["jti"].(string)
			revoked, err := h.Revocations.IsRevoked(r.Context(), jti)
			if err != nil {
				h.log().Error("check token revocation", zap.Error(err))
				shared.SendError(w, "Cannot verify token", http.StatusInternalServerError)
				return
			}
			if revoked {
				shared.SendError(w, "Invalid token", http.StatusUnauthorized)
				return
			}
		}

		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

// authenticate adapts AuthMiddleware to chi's middleware signature.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return h.AuthMiddleware(next.ServeHTTP)
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}
