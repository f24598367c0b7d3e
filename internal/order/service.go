package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/cart"
)

type Service interface {
	// CreateFromCart satisfies the cart engine's OrderCreator contract.
	CreateFromCart(ctx context.Context, orderID uuid.UUID, userID, shippingAddress string, items []cart.Item) error
	GetByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetByID(ctx context.Context, orderID, userID uuid.UUID) (*Order, error)
	// UpdateStatus overwrites the status unconditionally. There is no
	// transition validation here on purpose; see ParseStatus.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// CreateFromCart materializes the cart items into one order plus its line
// items. Totals come from the snapshot prices stored on the items, never
// from the catalog's live prices.
func (s *service) CreateFromCart(ctx context.Context, orderID uuid.UUID, userID, shippingAddress string, items []cart.Item) error {
	if shippingAddress == "" {
		return fmt.Errorf("%w: shipping address is required", apperr.ErrInvalidArgument)
	}
	if len(items) == 0 {
		return apperr.ErrEmptyCart
	}

	uid, err := uuid.FromString(userID)
	if err != nil {
		return fmt.Errorf("%w: malformed user id %q", apperr.ErrInvalidArgument, userID)
	}

	total := decimal.Zero
	orderItems := make([]Item, 0, len(items))
	for _, ci := range items {
		if ci.Quantity < 1 {
			return fmt.Errorf("%w: quantity for product %s must be at least 1", apperr.ErrInvalidArgument, ci.ProductID)
		}
		total = total.Add(ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity))))
		orderItems = append(orderItems, Item{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Price:     ci.Price,
		})
	}

	o := &Order{
		ID:              orderID,
		UserID:          uid,
		Status:          StatusPending,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		Items:           orderItems,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to create order")
		return fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("user_id", uid).
		Str("total", total.String()).Msg("service: order created")

	return nil
}

func (s *service) GetByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("status", status).Msg("service: order status updated")

	return nil
}
