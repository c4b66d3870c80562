// Package requestid assigns every request an id for log correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"govnav/pkg/requestcontext"
)

// Header is the inbound/outbound request id header. An id supplied by an
// upstream proxy is trusted for correlation only, never for authorization.
const Header = "X-Request-ID"

// Middleware propagates the caller's request id, or mints one when absent,
// and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		w.Header().Set(Header, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
