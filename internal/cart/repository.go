package cart

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

// ErrDuplicateItem is returned when an insert collides with the partial
// unique index on (user_id, product_id, active). The caller retries the add
// as an increment.
var ErrDuplicateItem = errors.New("active cart item already exists")

type Repository interface {
	FindActive(ctx context.Context, userID string) ([]Item, error)
	FindActiveItem(ctx context.Context, userID, productID string) (*Item, error)
	Insert(ctx context.Context, item *Item) (string, error)
	AddQuantity(ctx context.Context, id string, delta int, price decimal.Decimal) error
	UpdateQuantity(ctx context.Context, id, userID string, quantity int) error
	Delete(ctx context.Context, id, userID string) error
	CountActive(ctx context.Context, userID string) (int64, error)
	// MarkCheckedOut flips the given still-active items of the user to
	// checked out in one conditional update and returns how many documents
	// it touched. Zero means another checkout got there first. Items added
	// after the caller read its snapshot are not in the id set and stay
	// active.
	MarkCheckedOut(ctx context.Context, userID string, itemIDs []string, orderID string, at time.Time) (int64, error)
	// UnmarkByOrder reverts a MarkCheckedOut group when the relational
	// order could not be materialized.
	UnmarkByOrder(ctx context.Context, orderID string) error
	UsersHoldingProduct(ctx context.Context, productID string) ([]string, error)
	EnsureIndexes(ctx context.Context) error
}

type itemDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	ProductID    string             `bson:"product_id"`
	Quantity     int                `bson:"quantity"`
	Price        string             `bson:"price"`
	AddedAt      time.Time          `bson:"added_at"`
	IsCheckedOut bool               `bson:"is_checked_out"`
	CheckedOutAt *time.Time         `bson:"checked_out_at,omitempty"`
	OrderID      string             `bson:"order_id,omitempty"`
}

func (d *itemDoc) toItem() (*Item, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return nil, fmt.Errorf("repository: bad price %q on cart item %s: %w", d.Price, d.ID.Hex(), err)
	}

	return &Item{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		ProductID:    d.ProductID,
		Quantity:     d.Quantity,
		Price:        price,
		AddedAt:      d.AddedAt,
		IsCheckedOut: d.IsCheckedOut,
		CheckedOutAt: d.CheckedOutAt,
		OrderID:      d.OrderID,
	}, nil
}

type mongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{col: db.Collection("carts")}
}

// EnsureIndexes creates the partial unique index that collapses concurrent
// duplicate adds for the same (user, product) at the store level.
func (r *mongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"is_checked_out": false}),
	})
	if err != nil {
		return fmt.Errorf("repository: failed to ensure cart indexes: %w", err)
	}

	return nil
}

func activeFilter(userID string) bson.M {
	return bson.M{"user_id": userID, "is_checked_out": false}
}

func (r *mongoRepository) FindActive(ctx context.Context, userID string) ([]Item, error) {
	cur, err := r.col.Find(ctx, activeFilter(userID))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart for user %s: %w", userID, err)
	}
	defer cur.Close(ctx)

	items := make([]Item, 0)
	for cur.Next(ctx) {
		var doc itemDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("repository: failed to decode cart item: %w", err)
		}
		item, err := doc.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}

	return items, nil
}

func (r *mongoRepository) FindActiveItem(ctx context.Context, userID, productID string) (*Item, error) {
	filter := activeFilter(userID)
	filter["product_id"] = productID

	var doc itemDoc
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to find cart item: %w", err)
	}

	return doc.toItem()
}

func (r *mongoRepository) Insert(ctx context.Context, item *Item) (string, error) {
	doc := itemDoc{
		UserID:       item.UserID,
		ProductID:    item.ProductID,
		Quantity:     item.Quantity,
		Price:        item.Price.String(),
		AddedAt:      time.Now().UTC(),
		IsCheckedOut: false,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateItem
		}
		return "", fmt.Errorf("repository: failed to insert cart item: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("repository: unexpected inserted id type %T", res.InsertedID)
	}
	item.ID = oid.Hex()
	item.AddedAt = doc.AddedAt

	return item.ID, nil
}

func (r *mongoRepository) AddQuantity(ctx context.Context, id string, delta int, price decimal.Decimal) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "is_checked_out": false},
		bson.M{
			"$inc": bson.M{"quantity": delta},
			"$set": bson.M{"price": price.String()},
		},
	)
	if err != nil {
		return fmt.Errorf("repository: failed to increment cart item %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (r *mongoRepository) UpdateQuantity(ctx context.Context, id, userID string, quantity int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": userID, "is_checked_out": false},
		bson.M{"$set": bson.M{"quantity": quantity}},
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID, "is_checked_out": false})
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}

	return nil
}

func (r *mongoRepository) CountActive(ctx context.Context, userID string) (int64, error) {
	n, err := r.col.CountDocuments(ctx, activeFilter(userID))
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count cart items for user %s: %w", userID, err)
	}

	return n, nil
}

func (r *mongoRepository) MarkCheckedOut(ctx context.Context, userID string, itemIDs []string, orderID string, at time.Time) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(itemIDs))
	for _, id := range itemIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return 0, fmt.Errorf("repository: bad cart item id %q: %w", id, err)
		}
		oids = append(oids, oid)
	}

	filter := activeFilter(userID)
	filter["_id"] = bson.M{"$in": oids}

	res, err := r.col.UpdateMany(ctx,
		filter,
		bson.M{"$set": bson.M{
			"is_checked_out": true,
			"checked_out_at": at,
			"order_id":       orderID,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to mark cart checked out for user %s: %w", userID, err)
	}

	return res.ModifiedCount, nil
}

func (r *mongoRepository) UnmarkByOrder(ctx context.Context, orderID string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"order_id": orderID},
		bson.M{
			"$set":   bson.M{"is_checked_out": false},
			"$unset": bson.M{"checked_out_at": "", "order_id": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("repository: failed to unmark cart items for order %s: %w", orderID, err)
	}

	return nil
}

func (r *mongoRepository) UsersHoldingProduct(ctx context.Context, productID string) ([]string, error) {
	values, err := r.col.Distinct(ctx, "user_id", bson.M{"product_id": productID, "is_checked_out": false})
	if err != nil {
		return nil, fmt.Errorf("repository: failed to find holders of product %s: %w", productID, err)
	}

	users := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			users = append(users, s)
		}
	}

	return users, nil
}
