package db

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsUnavailable reports whether err means a backing store could not be
// reached, as opposed to the store rejecting the request. Repositories wrap
// driver errors untouched, so the driver's connectivity errors are still in
// the chain when a handler classifies the failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected),
		mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		pgconn.Timeout(err),
		errors.As(err, &netErr):
		return true
	}

	return false
}
