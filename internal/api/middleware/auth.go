package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/narvanalabs/domain-registry/internal/api/errors"
	"github.com/narvanalabs/domain-registry/internal/auth"
)

type contextKey string

// CallerKey is the context key for the authenticated *auth.Caller.
const CallerKey contextKey = "caller"

// GetCaller extracts the authenticated caller from the request context.
func GetCaller(ctx context.Context) *auth.Caller {
	if v, ok := ctx.Value(CallerKey).(*auth.Caller); ok {
		return v
	}
	return nil
}

// WithCaller returns a context carrying caller.
func WithCaller(ctx context.Context, caller *auth.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// AuthMiddleware handles JWT and API key authentication.
type AuthMiddleware struct {
	authService  *auth.Service
	apiKeyHeader string
	logger       *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(authService *auth.Service, apiKeyHeader string, logger *slog.Logger) *AuthMiddleware {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		authService:  authService,
		apiKeyHeader: apiKeyHeader,
		logger:       logger,
	}
}

// Authenticate resolves the caller from an API key or a bearer token and
// stores it in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		var userID string

		if apiKey := r.Header.Get(m.apiKeyHeader); apiKey != "" {
			id, err := m.authService.ValidateAPIKey(r.Context(), apiKey)
			if err != nil {
				m.logger.Debug("API key validation failed", "error", err, "request_id", requestID)
				unauthorized(w, requestID, "Invalid API key")
				return
			}
			userID = id
		} else {
			token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w, requestID, "Missing authentication")
				return
			}

			claims, err := m.authService.ValidateToken(token)
			if err != nil {
				m.logger.Debug("JWT validation failed", "error", err, "request_id", requestID)
				if errors.Is(err, auth.ErrExpiredToken) {
					unauthorized(w, requestID, "Token has expired")
					return
				}
				unauthorized(w, requestID, "Invalid token")
				return
			}
			userID = claims.UserID
		}

		caller, err := m.authService.ResolveCaller(r.Context(), userID)
		if err != nil {
			m.logger.Error("failed to resolve caller", "error", err, "user_id", userID, "request_id", requestID)
			apierrors.WriteError(w, apierrors.NewInternalError("an unexpected error occurred").WithRequestID(requestID))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireAdmin rejects callers without the admin flag.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := GetCaller(r.Context())
		if caller == nil || !caller.IsAdmin {
			apierrors.WriteError(w, apierrors.NewForbiddenError("admin access required").
				WithRequestID(middleware.GetReqID(r.Context())))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, requestID, message string) {
	apierrors.WriteError(w, apierrors.NewUnauthorizedError(message).WithRequestID(requestID))
}
