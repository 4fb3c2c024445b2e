package handlers

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"piggybank/internal/logger"
	"piggybank/internal/models"
	"piggybank/internal/security"
	"piggybank/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey       ContextKey = "user"
	KidSessionContextKey ContextKey = "kid"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	kidSessions *service.KidSessionManager
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, kidSessions *service.KidSessionManager) *Middleware {
	return &Middleware{
		authService: authService,
		kidSessions: kidSessions,
	}
}

// RequireAuth is middleware that requires a valid parent session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, r, http.StatusUnauthorized, ErrUnauthorized, nil)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondWithError(w, r, http.StatusUnauthorized, ErrUnauthorized, nil)
			return
		}

		log := logger.FromContext(r.Context()).With().Str("user_id", user.ID).Logger()
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = logger.WithContext(ctx, log)
		next(w, r.WithContext(ctx))
	}
}

// RequireKid is middleware that requires a valid kid session
func (m *Middleware) RequireKid(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := m.kidSessions.Read(r.Context(), w, r)
		if err != nil {
			respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, err)
			return
		}
		if info == nil {
			respondWithError(w, r, http.StatusUnauthorized, ErrKidSessionRequired, nil)
			return
		}

		ctx := context.WithValue(r.Context(), KidSessionContextKey, info)
		next(w, r.WithContext(ctx))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Logging attaches a request logger to the context and logs each request
func Logging(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		reqLog := log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context(), reqLog)))

		reqLog.Info().
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", security.GetClientIP(r, false)).
			Msg("HTTP request")
	})
}

// Recovery turns panics into a 500 response
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				log := logger.FromContext(r.Context())
				log.Error().Interface("panic", rv).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
				respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetKidSessionFromContext retrieves the kid session from the request context
func GetKidSessionFromContext(ctx context.Context) *service.KidSessionInfo {
	info, ok := ctx.Value(KidSessionContextKey).(*service.KidSessionInfo)
	if !ok {
		return nil
	}
	return info
}
