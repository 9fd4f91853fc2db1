package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	errNoToken      = errors.New("missing bearer token")
	errTokenRevoked = errors.New("token has been revoked")
)

func (h *Handler) issueToken(user *models.User) (*models.Session, error) {
	if len(h.JWTSecret) == 0 {
		return nil, errors.New("JWT secret is not configured")
	}
	now := h.clock()
	expires := now.Add(h.ttl())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(h.JWTSecret)
	if err != nil {
		return nil, err
	}
	return &models.Session{User: *user, Token: signed, ExpiresAt: expires.UTC()}, nil
}

// parseToken validates the bearer token of r and rejects revoked tokens.
func (h *Handler) parseToken(r *http.Request) (*jwt.RegisteredClaims, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errNoToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims,
		func(*jwt.Token) (any, error) { return h.JWTSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.clock),
	)
	if err != nil {
		return nil, err
	}
	if h.Revoked != nil && h.Revoked.Contains(claims.ID) {
		return nil, errTokenRevoked
	}
	if h.RevocationRepo != nil {
		revoked, err := h.RevocationRepo.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, errTokenRevoked
		}
	}
	return claims, nil
}

// Revocations remembers logged-out token ids until the tokens would have
// expired anyway.
type Revocations struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{tokens: make(map[string]time.Time), now: time.Now}
}

func (rv *Revocations) Revoke(id string, expiresAt time.Time) {
	if id == "" {
		return
	}
	rv.mu.Lock()
	defer rv.mu.Unlock()

	now := rv.now()
	for k, exp := range rv.tokens {
		if !exp.After(now) {
			delete(rv.tokens, k)
		}
	}
	rv.tokens[id] = expiresAt
}

func (rv *Revocations) Contains(id string) bool {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	exp, ok := rv.tokens[id]
	return ok && exp.After(rv.now())
}

func (rv *Revocations) Len() int {
	rv.mu.Lock()
	defer rv.mu.Unlock()
	return len(rv.tokens)
}
