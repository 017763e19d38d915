package identity

import (
	"log/slog"
	"net/http"
	"strings"
)

// HeaderUserID carries the signed-in user's id. Authentication happens in
// front of this service.
const HeaderUserID = "X-User-ID"

// Middleware resolves the identity for every request and stores it on the
// context. Requests without the header fall back to fallbackUserID, which
// may be empty. A store failure leaves the identity empty; handlers render
// their empty states.
func Middleware(r *Resolver, fallbackUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userID := strings.TrimSpace(req.Header.Get(HeaderUserID))
			if userID == "" {
				userID = fallbackUserID
			}

			id, err := r.Resolve(req.Context(), userID)
			if err != nil {
				slog.WarnContext(req.Context(), "Identity resolution failed", "user_id", userID, "error", err)
			}

			next.ServeHTTP(w, req.WithContext(WithIdentity(req.Context(), id)))
		})
	}
}
