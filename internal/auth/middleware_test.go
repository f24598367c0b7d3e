package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/marketplace/internal/auth"
)

func TestGuard_RequireCustomer(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	guard := auth.NewGuard(tokens)

	customerToken, err := tokens.Issue("customer-1", auth.RoleCustomer)
	require.NoError(t, err)
	supplierToken, err := tokens.Issue("supplier-1", auth.RoleSupplier)
	require.NoError(t, err)
	expiredToken, err := auth.NewTokenManager("test-secret", -time.Minute).Issue("customer-1", auth.RoleCustomer)
	require.NoError(t, err)
	foreignToken, err := auth.NewTokenManager("other-secret", time.Hour).Issue("customer-1", auth.RoleCustomer)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantNext   bool
	}{
		{name: "no_header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong_scheme", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "literal_undefined", authHeader: "Bearer undefined", wantStatus: http.StatusUnauthorized},
		{name: "malformed_token", authHeader: "Bearer abc.def", wantStatus: http.StatusUnauthorized},
		{name: "bad_signature", authHeader: "Bearer " + foreignToken, wantStatus: http.StatusUnauthorized},
		{name: "expired", authHeader: "Bearer " + expiredToken, wantStatus: http.StatusUnauthorized},
		{name: "wrong_role", authHeader: "Bearer " + supplierToken, wantStatus: http.StatusForbidden},
		{name: "customer_ok", authHeader: "Bearer " + customerToken, wantStatus: http.StatusOK, wantNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true

				identity, ok := auth.IdentityFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, "customer-1", identity.ID)
				assert.Equal(t, auth.RoleCustomer, identity.Role)

				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			guard.RequireCustomer(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
		})
	}
}

func TestGuard_RequireAuthenticated_AdmitsBothRoles(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	guard := auth.NewGuard(tokens)

	for _, role := range []auth.Role{auth.RoleCustomer, auth.RoleSupplier} {
		t.Run(string(role), func(t *testing.T) {
			token, err := tokens.Issue("user-1", role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			guard.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				identity, ok := auth.IdentityFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, role, identity.Role)
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestGuard_RequireAuthenticated_RejectsAnonymous(t *testing.T) {
	guard := auth.NewGuard(auth.NewTokenManager("test-secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()

	guard.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a credential")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_RequireSupplier_RejectsCustomer(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	guard := auth.NewGuard(tokens)

	customerToken, err := tokens.Issue("customer-1", auth.RoleCustomer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	rec := httptest.NewRecorder()

	guard.RequireSupplier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a mismatched role")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
