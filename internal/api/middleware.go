package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/theLastOfCats/series-browser/internal/auth"
	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/metrics"
)

type contextKey string

const UserIDKey contextKey = "userID"

type Middleware struct {
	DB *db.DB
}

// RequireUser authenticates the bearer token and checks that it belongs to
// the user named by the {id} path parameter.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || userID <= 0 {
			JSONError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			JSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			JSONError(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			JSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if claims.UserID != userID {
			JSONError(w, "Forbidden", http.StatusForbidden)
			return
		}

		// the token may outlive the account
		exists, err := m.DB.UserExists(r.Context(), claims.UserID)
		if err != nil {
			internalError(w, r, err, "failed to check user")
			return
		}
		if !exists {
			logging.Warn().Int64("user_id", claims.UserID).Msg("token for unknown user")
			JSONError(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey).(int64)
	return userID, ok
}

// CORS allows the browser front end to call the API from another origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

// RateLimitAuth limits login and registration attempts per client IP. A
// non-positive limit disables it.
func RateLimitAuth(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			JSONError(w, "Too many requests", http.StatusTooManyRequests)
		}),
	)
}
