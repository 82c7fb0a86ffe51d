package auth

import (
	"encoding/json"
	"net/http"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// Authenticate resolves the bearer token, if any, into an Identity stored in
// the request context. Requests without an Authorization header continue
// anonymously; a present but invalid token is rejected with 401.
func Authenticate(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := BearerToken(header)
			if !ok {
				deny(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}
			id, err := tokens.Parse(raw)
			if err != nil {
				deny(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).Authenticated() {
			deny(w, http.StatusUnauthorized, model.ErrUnauthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole admits authenticated callers holding one of roles.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			switch {
			case !id.Authenticated():
				deny(w, http.StatusUnauthorized, model.ErrUnauthenticated.Error())
			case !id.HasRole(roles...):
				deny(w, http.StatusForbidden, model.ErrUnauthorized.Error())
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
