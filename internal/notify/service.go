package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/marketplace/internal/user"
)

// UserLookup resolves a recipient address from an id.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service sends the best-effort notifications triggered by engine state
// changes. Every method swallows its own errors: a failed mail must never
// fail the operation that triggered it.
type Service struct {
	users  UserLookup
	mailer Mailer
}

func NewService(users UserLookup, mailer Mailer) *Service {
	return &Service{users: users, mailer: mailer}
}

func (s *Service) CartUpdated(ctx context.Context, userID string) {
	u, ok := s.recipient(ctx, userID)
	if !ok {
		return
	}

	body := fmt.Sprintf("Hi %s,\n\nYour cart has been updated.", u.FirstName)
	if err := s.mailer.Send(ctx, u.Email, "Your cart has been updated", body); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("notify: failed to send cart-updated mail")
	}
}

func (s *Service) OrderReceived(ctx context.Context, userID, orderID string, total decimal.Decimal) {
	u, ok := s.recipient(ctx, userID)
	if !ok {
		return
	}

	body := fmt.Sprintf("Hi %s,\n\nYour order %s has been received.\nOrder total: %s",
		u.FirstName, orderID, total.StringFixed(2))
	if err := s.mailer.Send(ctx, u.Email, "Your order has been received", body); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("order_id", orderID).
			Msg("notify: failed to send order-received mail")
	}
}

func (s *Service) ProductUnavailable(ctx context.Context, userID, productName string) {
	u, ok := s.recipient(ctx, userID)
	if !ok {
		return
	}

	body := fmt.Sprintf("Hi %s,\n\nThe product %q in your cart is no longer available.", u.FirstName, productName)
	if err := s.mailer.Send(ctx, u.Email, "Product no longer available", body); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("notify: failed to send product-unavailable mail")
	}
}

func (s *Service) PasswordReset(ctx context.Context, email, token string) {
	body := fmt.Sprintf("A password reset was requested for this address.\n\nReset token: %s\n\nThe token expires in 24 hours.", token)
	if err := s.mailer.Send(ctx, email, "Password reset", body); err != nil {
		log.Warn().Err(err).Msg("notify: failed to send password-reset mail")
	}
}

func (s *Service) recipient(ctx context.Context, userID string) (*user.User, bool) {
	uid, err := uuid.FromString(userID)
	if err != nil {
		log.Warn().Str("user_id", userID).Msg("notify: malformed user id, skipping mail")
		return nil, false
	}

	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("user_id", userID).Msg("notify: failed to resolve recipient")
		}
		return nil, false
	}

	return u, true
}
