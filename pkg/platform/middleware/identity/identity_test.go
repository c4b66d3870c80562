package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "govnav/pkg/domain"
	"govnav/pkg/requestcontext"
)

func callWithHeader(t *testing.T, header string) id.UserID {
	t.Helper()
	var got id.UserID
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestcontext.UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMiddlewareSetsUserFromHeader(t *testing.T) {
	userID := id.NewUserID()
	assert.Equal(t, userID, callWithHeader(t, userID.String()))
}

func TestMiddlewareIgnoresMissingHeader(t *testing.T) {
	assert.True(t, callWithHeader(t, "").IsNil())
}

func TestMiddlewareIgnoresMalformedHeader(t *testing.T) {
	assert.True(t, callWithHeader(t, "not-a-uuid").IsNil())
}
