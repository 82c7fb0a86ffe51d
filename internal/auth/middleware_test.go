package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	tm, err := NewTokenManager("s3cret", "eventhub", time.Hour, func() time.Time { return now })
	require.NoError(t, err)

	organizerToken, err := tm.Issue(Identity{UserID: "u-org", Role: RoleOrganizer})
	require.NoError(t, err)
	attendeeToken, err := tm.Issue(Identity{UserID: "u-att", Role: RoleAttendee})
	require.NoError(t, err)

	var seen Identity
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		gate       func(http.Handler) http.Handler
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "anonymous passes open routes", gate: func(h http.Handler) http.Handler { return h }, wantStatus: http.StatusNoContent},
		{name: "valid token sets identity", gate: RequireAuth, header: "Bearer " + attendeeToken, wantStatus: http.StatusNoContent, wantUser: "u-att"},
		{name: "anonymous rejected", gate: RequireAuth, wantStatus: http.StatusUnauthorized},
		{name: "garbage token rejected", gate: func(h http.Handler) http.Handler { return h }, header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme rejected", gate: RequireAuth, header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "role admitted", gate: RequireRole(RoleOrganizer, RoleAdmin), header: "Bearer " + organizerToken, wantStatus: http.StatusNoContent, wantUser: "u-org"},
		{name: "role refused", gate: RequireRole(RoleOrganizer, RoleAdmin), header: "Bearer " + attendeeToken, wantStatus: http.StatusForbidden},
		{name: "role needs a caller", gate: RequireRole(RoleOrganizer), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(tm)(tt.gate(echo)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen.UserID)
			if rec.Code >= 400 {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
