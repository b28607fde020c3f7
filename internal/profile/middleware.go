package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type contextKey struct{}

// cookieMaxAge keeps a browser on one profile for a year.
const cookieMaxAge = 365 * 24 * time.Hour

// Middleware resolves the profile for each request and stores it in the
// request context. Resolution order: header, cookie, new ID. A new ID is
// returned to the caller as a cookie. An invalid header or cookie is
// rejected with 400.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := resolve(r)
			if err != nil {
				logger.Warn("invalid profile",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()))
				writeProfileError(w, err.Error())
				return
			}

			if id == "" {
				id = NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cookieMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				logger.Debug("assigned new profile", slog.String("profile", id))
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// resolve returns the profile named by the request, or "" when it names none.
func resolve(r *http.Request) (string, error) {
	if header := r.Header.Get(HeaderName); header != "" {
		return ParseHeader(header)
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if err := Validate(c.Value); err != nil {
			return "", err
		}
		return c.Value, nil
	}
	return "", nil
}

// isExemptPath returns true for infrastructure paths that carry no cart state.
func isExemptPath(path string) bool {
	return path == "/health" || path == "/healthz"
}

func writeProfileError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = "INVALID_PROFILE"
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}

// WithID returns ctx carrying profile id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the profile stored by Middleware, or "" if none.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
