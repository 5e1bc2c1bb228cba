package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dispatchboard/internal/auth"
)

type ctxKeyPrincipal struct{}

// getPrincipal extracts the caller from the bearer token.
// - If Authorization: Bearer is present, uses the configured verifier.
// - Else, in dev mode only, falls back to X-User / X-Role / X-Teams headers.
func (s *Server) getPrincipal(r *http.Request) (auth.Principal, error) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		return s.Auth.Verify(tok)
	}
	if s.Auth.Mode() != "dev" {
		return auth.Principal{}, errors.New("missing bearer token")
	}
	user := r.Header.Get("X-User")
	if user == "" {
		user = "dev"
	}
	role := r.Header.Get("X-Role")
	if role == "" {
		role = auth.RoleAdmin
	}
	tok := user + ":" + role
	if teams := r.Header.Get("X-Teams"); teams != "" {
		tok += ":" + teams
	}
	return s.Auth.Verify(tok)
}

// authed resolves the principal before calling h.
func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.getPrincipal(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="dispatchboard"`)
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error(), r.URL.Path)
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxKeyPrincipal{}, p)))
	})
}

func principalFrom(ctx context.Context) auth.Principal {
	p, _ := ctx.Value(ctxKeyPrincipal{}).(auth.Principal)
	return p
}

// canEdit reports whether the principal may write loads.
func canEdit(p auth.Principal) bool {
	return p.Role == auth.RoleAdmin || p.Role == auth.RoleManager || p.Role == auth.RoleDispatcher
}
