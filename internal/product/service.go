package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
)

const (
	defaultPageSize = 20
	featuredCount   = 6
)

type Service interface {
	Create(ctx context.Context, supplierID string, input CreateInput) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDAnyState(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, page int) ([]Product, error)
	Featured(ctx context.Context) ([]Product, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]Product, error)
	Update(ctx context.Context, id, supplierID string, patch UpdateInput) error
	SoftDelete(ctx context.Context, id, supplierID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, supplierID string, input CreateInput) (*Product, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidArgument)
	}
	if input.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be non-negative", apperr.ErrInvalidArgument)
	}
	if input.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be non-negative", apperr.ErrInvalidArgument)
	}

	p := &Product{
		SupplierID:  supplierID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
	}

	if _, err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("supplier_id", supplierID).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	return p, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		log.Error().Err(err).Str("product_id", id).Msg("service: failed to get product")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}

	return p, nil
}

func (s *service) GetByIDAnyState(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByIDAnyState(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		log.Error().Err(err).Str("product_id", id).Msg("service: failed to get product")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}

	return p, nil
}

func (s *service) List(ctx context.Context, page int) ([]Product, error) {
	if page < 1 {
		page = 1
	}

	products, err := s.repo.List(ctx, int64(page-1)*defaultPageSize, defaultPageSize)
	if err != nil {
		log.Error().Err(err).Int("page", page).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}

	return products, nil
}

// Featured returns the newest active products for the storefront banner.
func (s *service) Featured(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx, 0, featuredCount)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list featured products")
		return nil, fmt.Errorf("service: failed to list featured products: %w", err)
	}

	return products, nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID string) ([]Product, error) {
	products, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		log.Error().Err(err).Str("supplier_id", supplierID).Msg("service: failed to list supplier products")
		return nil, fmt.Errorf("service: failed to list supplier products: %w", err)
	}

	return products, nil
}

func (s *service) Update(ctx context.Context, id, supplierID string, patch UpdateInput) error {
	if patch.Price != nil && patch.Price.IsNegative() {
		return fmt.Errorf("%w: price must be non-negative", apperr.ErrInvalidArgument)
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", apperr.ErrInvalidArgument)
	}

	err := s.repo.Update(ctx, id, supplierID, patch)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidArgument) {
			return err
		}
		log.Error().Err(err).Str("product_id", id).Msg("service: failed to update product")
		return fmt.Errorf("service: failed to update product: %w", err)
	}

	return nil
}

func (s *service) SoftDelete(ctx context.Context, id, supplierID string) error {
	err := s.repo.SoftDelete(ctx, id, supplierID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		log.Error().Err(err).Str("product_id", id).Msg("service: failed to soft-delete product")
		return fmt.Errorf("service: failed to soft-delete product: %w", err)
	}

	return nil
}
