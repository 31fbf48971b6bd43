package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/namamy/cart-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// productDoc is the catalog collection schema. Prices are stored as
// strings to avoid float drift in BSON.
type productDoc struct {
	ID       int64    `bson:"_id"`
	Name     string   `bson:"name"`
	Price    string   `bson:"price"`
	Stock    int      `bson:"stock"`
	Variants []string `bson:"variants,omitempty"`
}

type mongoCatalog struct {
	collection *mongo.Collection
}

// NewMongoCatalog creates a Catalog backed by the "products" collection.
func NewMongoCatalog(db *mongo.Database) Catalog {
	return &mongoCatalog{collection: db.Collection("products")}
}

func (m *mongoCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var doc productDoc

	filter := bson.M{"_id": id}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	price, err := decimal.NewFromString(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price for product %d: %w", id, err)
	}

	return &domain.Product{
		ID:       doc.ID,
		Name:     doc.Name,
		Price:    price,
		Stock:    doc.Stock,
		Variants: doc.Variants,
	}, nil
}

// ConnectMongoDB opens a connection pool and verifies it with a ping.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
