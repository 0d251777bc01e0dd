package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productCollectionName = "products"

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Code        string             `bson:"code"`
	Price       float64            `bson:"price"`
	Status      bool               `bson:"status"`
	Stock       int                `bson:"stock"`
	Category    string             `bson:"category"`
	Thumbnails  []string           `bson:"thumbnails"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d productDocument) toModel() models.Product {
	thumbnails := d.Thumbnails
	if thumbnails == nil {
		thumbnails = []string{}
	}
	return models.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Code:        d.Code,
		Price:       d.Price,
		Status:      d.Status,
		Stock:       d.Stock,
		Category:    d.Category,
		Thumbnails:  thumbnails,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoProductRepository stores products as documents. Ids are ObjectIDs.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates the repository and ensures the unique index on code.
func NewMongoProductRepository(ctx context.Context, db *mongo.Database) (*MongoProductRepository, error) {
	r := &MongoProductRepository{collection: db.Collection(productCollectionName)}
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("code_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product code index: %w", err)
	}
	return r, nil
}

func (r *MongoProductRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// CanonicalID lower-cases the hex form of an ObjectID.
func (r *MongoProductRepository) CanonicalID(id string) string {
	return canonicalObjectID(id)
}

func canonicalObjectID(id string) string {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid.Hex()
	}
	return id
}

func productQuery(filter ProductFilter) bson.M {
	q := bson.M{}
	if filter.Available {
		q["stock"] = bson.M{"$gt": 0}
		q["status"] = true
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.Code != "" {
		q["code"] = filter.Code
	}
	if filter.ExcludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.ExcludeID); err == nil {
			q["_id"] = bson.M{"$ne": oid}
		}
	}
	return q
}

func (r *MongoProductRepository) FindAll(ctx context.Context, filter ProductFilter, order ProductSort, offset, limit int) ([]models.Product, error) {
	findOptions := options.Find()
	switch order {
	case SortPriceAsc:
		findOptions.SetSort(bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}})
	case SortPriceDesc:
		findOptions.SetSort(bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}})
	default:
		findOptions.SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	if offset > 0 {
		findOptions.SetSkip(int64(offset))
	}
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, productQuery(filter), findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

func (r *MongoProductRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, productQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return r.findOne(ctx, bson.M{"_id": oid}, id)
}

func (r *MongoProductRepository) FindOne(ctx context.Context, filter ProductFilter) (*models.Product, error) {
	return r.findOne(ctx, productQuery(filter), "")
}

func (r *MongoProductRepository) findOne(ctx context.Context, q bson.M, id string) (*models.Product, error) {
	var doc productDocument
	if err := r.collection.FindOne(ctx, q).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := doc.toModel()
	return &p, nil
}

func (r *MongoProductRepository) Insert(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	doc := productDocument{
		Title:       product.Title,
		Description: product.Description,
		Code:        product.Code,
		Price:       product.Price,
		Status:      product.Status,
		Stock:       product.Stock,
		Category:    product.Category,
		Thumbnails:  product.Thumbnails,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if doc.Thumbnails == nil {
		doc.Thumbnails = []string{}
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("product code %s: %w", product.Code, ErrDuplicateCode)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	*product = doc.toModel()
	log.Printf("Inserted product with ID: %s", product.ID)
	return nil
}

func patchSet(patch models.ProductPatch) bson.M {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Code != nil {
		set["code"] = *patch.Code
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Thumbnails != nil {
		set["thumbnails"] = append([]string{}, (*patch.Thumbnails)...)
	}
	return set
}

func (r *MongoProductRepository) UpdateByID(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": patchSet(patch)}, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
		case mongo.IsDuplicateKeyError(err):
			return nil, fmt.Errorf("product %s: %w", id, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	p := doc.toModel()
	return &p, nil
}

func (r *MongoProductRepository) DeleteByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}

	var doc productDocument
	if err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	log.Printf("Deleted product ID: %s", id)
	p := doc.toModel()
	return &p, nil
}
