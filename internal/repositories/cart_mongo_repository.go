package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartCollectionName = "carts"

type cartLineDocument struct {
	ProductID string `bson:"product"`
	Quantity  int    `bson:"quantity"`
}

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Lines     []cartLineDocument `bson:"products"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d cartDocument) toModel() models.Cart {
	lines := make([]models.CartLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, models.CartLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return models.Cart{ID: d.ID.Hex(), Lines: lines, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func lineDocuments(lines []models.CartLine) []cartLineDocument {
	docs := make([]cartLineDocument, 0, len(lines))
	for _, l := range lines {
		docs = append(docs, cartLineDocument{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return docs
}

// MongoCartRepository stores carts as single documents, so a line update is
// one atomic document write.
type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(cartCollectionName)}
}

func (r *MongoCartRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (r *MongoCartRepository) CanonicalID(id string) string {
	return canonicalObjectID(id)
}

func (r *MongoCartRepository) FindByID(ctx context.Context, id string) (*models.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("cart with ID %s: %w", id, ErrNotFound)
	}
	var doc cartDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("cart with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	c := doc.toModel()
	return &c, nil
}

func (r *MongoCartRepository) Insert(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	doc := cartDocument{Lines: lineDocuments(cart.Lines), CreatedAt: now, UpdatedAt: now}
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert cart: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	*cart = doc.toModel()
	return nil
}

func (r *MongoCartRepository) UpdateLines(ctx context.Context, id string, lines []models.CartLine) (*models.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("cart with ID %s not found for update: %w", id, ErrNotFound)
	}

	update := bson.M{"$set": bson.M{"products": lineDocuments(lines), "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc cartDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("cart with ID %s not found for update: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	c := doc.toModel()
	return &c, nil
}

func (r *MongoCartRepository) DeleteByID(ctx context.Context, id string) (*models.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("cart with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	var doc cartDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("cart with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete cart: %w", err)
	}
	c := doc.toModel()
	return &c, nil
}
