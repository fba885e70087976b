package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockpile/stockpile-go/internal/model"
)

// MongoProductRepository handles product persistence on MongoDB.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a new MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{coll: db.Collection(productsCollection)}
}

// Create inserts p and sets the generated ID and timestamps on it.
func (r *MongoProductRepository) Create(ctx context.Context, p *model.Product) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate product id: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	doc := *p
	doc.ID = id.String()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}

	*p = doc
	return nil
}

// GetByID retrieves a product by its ID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return decodeProduct(r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}))
}

// Update applies the non-nil fields of patch and returns the stored result.
func (r *MongoProductRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	update := patchUpdate(patch, time.Now().UTC().Truncate(time.Millisecond))
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	return decodeProduct(r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts))
}

// Delete removes a product and returns the record as it was before deletion.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) (*model.Product, error) {
	return decodeProduct(r.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}))
}

// Find returns one page of products matching q, ordered by ID, together with
// the total number of matches.
func (r *MongoProductRepository) Find(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	q = q.Normalized()
	filter := productFilter(q.Filter)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, q.Limit)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}

	return products, total, nil
}

func decodeProduct(res *mongo.SingleResult) (*model.Product, error) {
	p := &model.Product{}
	if err := res.Decode(p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// productFilter translates f into a query document. Name matches are
// case-insensitive substring matches with regex metacharacters quoted.
func productFilter(f model.ProductFilter) bson.D {
	filter := bson.D{}

	if f.Name != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(f.Name)},
			{Key: "$options", Value: "i"},
		}})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	switch f.StockStatus {
	case model.StockInStock:
		filter = append(filter, bson.E{Key: "quantity", Value: bson.D{{Key: "$gt", Value: 0}}})
	case model.StockOutOfStock:
		filter = append(filter, bson.E{Key: "quantity", Value: 0})
	}

	return filter
}

// patchUpdate builds a $set document for the non-nil fields of patch. An
// empty image clears the field.
func patchUpdate(patch model.ProductPatch, now time.Time) bson.D {
	set := bson.D{{Key: "updated_at", Value: now}}
	add := func(key string, v any) {
		set = append(set, bson.E{Key: key, Value: v})
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}

	update := bson.D{}
	if patch.Image != nil && *patch.Image == "" {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "image", Value: ""}}})
	} else if patch.Image != nil {
		add("image", *patch.Image)
	}

	return append(update, bson.E{Key: "$set", Value: set})
}
