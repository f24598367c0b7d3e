package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/product"
)

// ProductGetter is the slice of the catalog the engine needs: existence
// checks on add, availability annotation on reads.
type ProductGetter interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	GetByIDAnyState(ctx context.Context, id string) (*product.Product, error)
}

// OrderCreator materializes a checked-out cart into relational order rows.
// The whole group must persist or nothing.
type OrderCreator interface {
	CreateFromCart(ctx context.Context, orderID uuid.UUID, userID, shippingAddress string, items []Item) error
}

// Notifier sends best-effort mail on cart state changes. Implementations
// must never return; failures are theirs to log.
type Notifier interface {
	CartUpdated(ctx context.Context, userID string)
	OrderReceived(ctx context.Context, userID, orderID string, total decimal.Decimal)
}

type Service interface {
	AddItem(ctx context.Context, userID, productID string, quantity int, price decimal.Decimal) (string, error)
	GetUserCart(ctx context.Context, userID string) ([]Line, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	Count(ctx context.Context, userID string) int64
	Checkout(ctx context.Context, userID, shippingAddress string) (string, error)
	UsersHoldingProduct(ctx context.Context, productID string) ([]string, error)
}

type service struct {
	repo     Repository
	products ProductGetter
	orders   OrderCreator
	notifier Notifier
}

func NewService(repo Repository, products ProductGetter, orders OrderCreator, notifier Notifier) Service {
	return &service{repo: repo, products: products, orders: orders, notifier: notifier}
}

// AddItem upserts the (user, product) line: an existing active item gets its
// quantity incremented and its snapshot price overwritten with the supplied
// value; otherwise a new item is inserted. No item is ever created for a
// missing or soft-deleted product.
func (s *service) AddItem(ctx context.Context, userID, productID string, quantity int, price decimal.Decimal) (string, error) {
	if quantity < 1 {
		return "", fmt.Errorf("%w: quantity must be at least 1", apperr.ErrInvalidArgument)
	}
	if price.IsNegative() {
		return "", fmt.Errorf("%w: price must be non-negative", apperr.ErrInvalidArgument)
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrNotFound
		}
		log.Error().Err(err).Str("product_id", productID).Msg("service: failed to check product before add")
		return "", fmt.Errorf("service: failed to check product: %w", err)
	}

	itemID, err := s.upsertItem(ctx, userID, productID, quantity, price)
	if err != nil {
		return "", err
	}

	s.notifier.CartUpdated(ctx, userID)

	return itemID, nil
}

func (s *service) upsertItem(ctx context.Context, userID, productID string, quantity int, price decimal.Decimal) (string, error) {
	existing, err := s.repo.FindActiveItem(ctx, userID, productID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to look up cart item")
		return "", fmt.Errorf("service: failed to look up cart item: %w", err)
	}

	if existing != nil {
		if err := s.repo.AddQuantity(ctx, existing.ID, quantity, price); err != nil {
			log.Error().Err(err).Str("cart_item_id", existing.ID).Msg("service: failed to increment cart item")
			return "", fmt.Errorf("service: failed to increment cart item: %w", err)
		}
		return existing.ID, nil
	}

	item := &Item{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
	}

	id, err := s.repo.Insert(ctx, item)
	if errors.Is(err, ErrDuplicateItem) {
		// A concurrent add for the same product won the insert; fold this
		// one into it.
		racing, ferr := s.repo.FindActiveItem(ctx, userID, productID)
		if ferr != nil {
			return "", fmt.Errorf("service: failed to resolve duplicate cart item: %w", ferr)
		}
		if ierr := s.repo.AddQuantity(ctx, racing.ID, quantity, price); ierr != nil {
			return "", fmt.Errorf("service: failed to increment cart item after duplicate: %w", ierr)
		}
		return racing.ID, nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to insert cart item")
		return "", fmt.Errorf("service: failed to insert cart item: %w", err)
	}

	return id, nil
}

// GetUserCart returns the active items annotated with live product
// availability. Items whose product is gone or soft-deleted stay in the
// result, flagged unavailable.
func (s *service) GetUserCart(ctx context.Context, userID string) ([]Line, error) {
	items, err := s.repo.FindActive(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to load cart")
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		line := Line{Item: item}

		p, err := s.products.GetByIDAnyState(ctx, item.ProductID)
		switch {
		case err == nil && !p.IsDeleted:
			line.ProductName = p.Name
			line.Available = true
		case err == nil:
			line.ProductName = p.Name
		case errors.Is(err, apperr.ErrNotFound):
			// Leave the line unavailable.
		default:
			log.Error().Err(err).Str("product_id", item.ProductID).Msg("service: failed to annotate cart line")
			return nil, fmt.Errorf("service: failed to annotate cart line: %w", err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", apperr.ErrInvalidArgument)
	}

	err := s.repo.UpdateQuantity(ctx, itemID, userID, quantity)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		log.Error().Err(err).Str("cart_item_id", itemID).Msg("service: failed to update quantity")
		return fmt.Errorf("service: failed to update quantity: %w", err)
	}

	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID string) error {
	err := s.repo.Delete(ctx, itemID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		log.Error().Err(err).Str("cart_item_id", itemID).Msg("service: failed to remove cart item")
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}

	return nil
}

// Count never fails: the badge is rendered on every page, anonymous visitors
// included, so any problem degrades to zero.
func (s *service) Count(ctx context.Context, userID string) int64 {
	n, err := s.repo.CountActive(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("service: failed to count cart items")
		return 0
	}

	return n
}

// Checkout converts the user's active cart into an order. The conditional
// mark on the still-active items read above is the serialization point: of
// two concurrent checkouts only one modifies anything, the other sees an
// empty result and reports an empty cart. Marking by the read item ids also
// means an item added mid-checkout stays active rather than getting stamped
// with an order it is not part of. If the relational order cannot be
// materialized the marks are reverted before the error surfaces.
func (s *service) Checkout(ctx context.Context, userID, shippingAddress string) (string, error) {
	if shippingAddress == "" {
		return "", fmt.Errorf("%w: shipping address is required", apperr.ErrInvalidArgument)
	}

	items, err := s.repo.FindActive(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to read cart for checkout")
		return "", fmt.Errorf("service: failed to read cart for checkout: %w", err)
	}
	if len(items) == 0 {
		return "", apperr.ErrEmptyCart
	}

	orderID, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("service: failed to generate order id: %w", err)
	}

	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}

	now := time.Now().UTC()
	marked, err := s.repo.MarkCheckedOut(ctx, userID, itemIDs, orderID.String(), now)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to mark cart checked out")
		return "", fmt.Errorf("service: failed to mark cart checked out: %w", err)
	}
	if marked == 0 {
		// Lost the race to a concurrent checkout.
		return "", apperr.ErrEmptyCart
	}

	if err := s.orders.CreateFromCart(ctx, orderID, userID, shippingAddress, items); err != nil {
		if uerr := s.repo.UnmarkByOrder(ctx, orderID.String()); uerr != nil {
			// Items stay marked with an order id that has no order row.
			// Needs operator attention; log loudly.
			log.Error().Err(uerr).Str("order_id", orderID.String()).
				Msg("service: failed to revert cart marks after order failure")
		}
		log.Error().Err(err).Str("user_id", userID).Msg("service: failed to materialize order")
		return "", err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	s.notifier.OrderReceived(ctx, userID, orderID.String(), total)

	log.Info().Str("user_id", userID).Str("order_id", orderID.String()).
		Int64("items", marked).Msg("service: cart checked out")

	return orderID.String(), nil
}

func (s *service) UsersHoldingProduct(ctx context.Context, productID string) ([]string, error) {
	users, err := s.repo.UsersHoldingProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("service: failed to list product holders")
		return nil, fmt.Errorf("service: failed to list product holders: %w", err)
	}

	return users, nil
}
