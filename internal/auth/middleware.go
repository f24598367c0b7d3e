package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
)

// Guard builds the role-gate middleware. The check is stateless and runs in
// full on every request.
type Guard struct {
	tokens *TokenManager
}

func NewGuard(tokens *TokenManager) *Guard {
	return &Guard{tokens: tokens}
}

func (g *Guard) RequireCustomer(next http.Handler) http.Handler {
	return g.requireRole(RoleCustomer, next)
}

func (g *Guard) RequireSupplier(next http.Handler) http.Handler {
	return g.requireRole(RoleSupplier, next)
}

// RequireAuthenticated admits any valid credential regardless of role. Used
// by endpoints both customers and suppliers own, like the profile.
func (g *Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.identify(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (g *Guard) requireRole(role Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.identify(r)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		if identity.Role != role {
			log.Warn().Str("have_role", string(identity.Role)).Str("want_role", string(role)).
				Str("path", r.URL.Path).Msg("role mismatch")
			writeAuthError(w, apperr.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (g *Guard) identify(r *http.Request) (Identity, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return Identity{}, err
	}
	return g.tokens.Verify(raw)
}

// Identify decodes the request credential without enforcing a role. Used by
// endpoints that serve anonymous callers too.
func (g *Guard) Identify(r *http.Request) (Identity, error) {
	return g.identify(r)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("%w: missing or malformed authorization header", apperr.ErrUnauthenticated)
	}

	token := strings.TrimPrefix(header, "Bearer ")

	// Some clients send the literal string "undefined" when no token was
	// ever stored. Treat it as an absent credential.
	if token == "" || token == "undefined" {
		return "", fmt.Errorf("%w: empty or undefined token", apperr.ErrUnauthenticated)
	}

	return token, nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	var status int
	var kind string
	switch {
	case errors.Is(err, apperr.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrInvalidToken):
		status, kind = http.StatusUnprocessableEntity, "invalid_token"
	default:
		status, kind = http.StatusUnauthorized, "unauthenticated"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"kind":    kind,
		"message": err.Error(),
	})
}
