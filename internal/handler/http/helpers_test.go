package http

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
)

func TestClassify(t *testing.T) {
	connRefused := fmt.Errorf("service: failed to load cart: %w",
		fmt.Errorf("repository: failed to query cart for user u1: %w",
			&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}))

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{name: "unauthenticated", err: apperr.ErrUnauthenticated, wantCode: http.StatusUnauthorized, wantKind: "unauthenticated"},
		{name: "forbidden", err: apperr.ErrForbidden, wantCode: http.StatusForbidden, wantKind: "forbidden"},
		{name: "invalid_token", err: apperr.ErrInvalidToken, wantCode: http.StatusUnprocessableEntity, wantKind: "invalid_token"},
		{name: "not_found", err: fmt.Errorf("service: %w", apperr.ErrNotFound), wantCode: http.StatusNotFound, wantKind: "not_found"},
		{name: "empty_cart", err: apperr.ErrEmptyCart, wantCode: http.StatusBadRequest, wantKind: "empty_cart"},
		{name: "email_exists", err: apperr.ErrEmailExists, wantCode: http.StatusConflict, wantKind: "email_exists"},
		{name: "store_unavailable_sentinel", err: apperr.ErrStoreUnavailable, wantCode: http.StatusServiceUnavailable, wantKind: "store_unavailable"},
		{name: "wrapped_driver_connectivity", err: connRefused, wantCode: http.StatusServiceUnavailable, wantKind: "store_unavailable"},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantKind: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, kind := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestRespondWithError_HidesStoreDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithError(rec, fmt.Errorf("repository: failed to ping: %w",
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused to db.internal:5432")}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db.internal")
	assert.Contains(t, rec.Body.String(), "store_unavailable")
}
