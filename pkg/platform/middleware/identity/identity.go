// Package identity resolves the acting user from the edge-supplied header.
package identity

import (
	"net/http"

	id "govnav/pkg/domain"
	"govnav/pkg/requestcontext"
)

// Header carries the authenticated user id, set by the edge gateway after it
// has verified the caller. This service performs no authentication of its own.
const Header = "X-User-ID"

// Middleware parses the user header into the request context. Requests
// without the header, or with a malformed id, pass through with no user set;
// handlers that need one decide how to fail.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if raw := r.Header.Get(Header); raw != "" {
			if userID, err := id.ParseUserID(raw); err == nil {
				ctx = requestcontext.WithUserID(ctx, userID)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
