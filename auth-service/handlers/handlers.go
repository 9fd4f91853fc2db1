package handlers

import (
	"net/http"
	"time"

	"github.com/chepyr/go-kanban/auth-service/db"
	"github.com/chepyr/go-kanban/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const DefaultTokenTTL = 24 * time.Hour

type Handler struct {
	UserRepo       db.UserRepositoryInterface
	RateLimiter    *shared.RateLimiter
	Revoked        *Revocations
	RevocationRepo db.RevocationRepositoryInterface // optional, read by the tasks service
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	Logger         *zap.Logger

	now func() time.Time
}

func (h *Handler) log() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *Handler) ttl() time.Duration {
	if h.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return h.TokenTTL
}

// allow reports whether the client may make another attempt. It writes the
// 429 itself.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, action string) bool {
	if h.RateLimiter == nil {
		return true
	}
	ip := shared.ClientIP(r)
	if h.RateLimiter.Allow(action + ":" + ip) {
		return true
	}
	h.log().Warn("rate limit exceeded", zap.String("ip", ip), zap.String("action", action))
	shared.SendError(w, "Too many "+action+" attempts. Please try again later.", http.StatusTooManyRequests)
	return false
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if len(h.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.SendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.SendError(w, "Not found", http.StatusNotFound)
	})

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.Session)
	return r
}
