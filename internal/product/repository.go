package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
)

type Repository interface {
	Create(ctx context.Context, p *Product) (string, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// GetByIDAnyState ignores the soft-delete flag. Used for integrity
	// checks against existing cart references.
	GetByIDAnyState(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, skip, limit int64) ([]Product, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]Product, error)
	Update(ctx context.Context, id, supplierID string, patch UpdateInput) error
	SoftDelete(ctx context.Context, id, supplierID string) error
}

// productDoc is the stored shape. Prices are kept as strings so decimal
// values survive the round trip without float drift.
type productDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	SupplierID  string             `bson:"supplier_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       string             `bson:"price"`
	Stock       int                `bson:"stock"`
	IsDeleted   bool               `bson:"is_deleted"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d *productDoc) toProduct() (*Product, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return nil, fmt.Errorf("repository: bad price %q on product %s: %w", d.Price, d.ID.Hex(), err)
	}

	return &Product{
		ID:          d.ID.Hex(),
		SupplierID:  d.SupplierID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Stock:       d.Stock,
		IsDeleted:   d.IsDeleted,
		CreatedAt:   d.CreatedAt,
	}, nil
}

type mongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{col: db.Collection("products")}
}

func (r *mongoRepository) Create(ctx context.Context, p *Product) (string, error) {
	doc := productDoc{
		SupplierID:  p.SupplierID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		IsDeleted:   false,
		CreatedAt:   time.Now().UTC(),
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("repository: failed to insert product: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("repository: unexpected inserted id type %T", res.InsertedID)
	}
	p.ID = oid.Hex()
	p.CreatedAt = doc.CreatedAt

	return p.ID, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	return r.findOne(ctx, id, bson.M{"is_deleted": false})
}

func (r *mongoRepository) GetByIDAnyState(ctx context.Context, id string) (*Product, error) {
	return r.findOne(ctx, id, bson.M{})
}

func (r *mongoRepository) findOne(ctx context.Context, id string, extra bson.M) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id can never name a product.
		return nil, apperr.ErrNotFound
	}

	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}

	var doc productDoc
	err = r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to find product %s: %w", id, err)
	}

	return doc.toProduct()
}

func (r *mongoRepository) List(ctx context.Context, skip, limit int64) ([]Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"is_deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list products: %w", err)
	}
	defer cur.Close(ctx)

	return decodeProducts(ctx, cur)
}

func (r *mongoRepository) ListBySupplier(ctx context.Context, supplierID string) ([]Product, error) {
	cur, err := r.col.Find(ctx, bson.M{"supplier_id": supplierID, "is_deleted": false})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list supplier products: %w", err)
	}
	defer cur.Close(ctx)

	return decodeProducts(ctx, cur)
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]Product, error) {
	products := make([]Product, 0)
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("repository: failed to decode product: %w", err)
		}
		p, err := doc.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

func (r *mongoRepository) Update(ctx context.Context, id, supplierID string, patch UpdateInput) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = patch.Price.String()
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if len(set) == 0 {
		return fmt.Errorf("%w: nothing to update", apperr.ErrInvalidArgument)
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "supplier_id": supplierID, "is_deleted": false},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (r *mongoRepository) SoftDelete(ctx context.Context, id, supplierID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "supplier_id": supplierID, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	if err != nil {
		return fmt.Errorf("repository: failed to soft-delete product %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}

	return nil
}
