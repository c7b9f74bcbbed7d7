package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lunoxdev/mai-store/internal/domain"
)

type mongoCartRepository struct {
	collection *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{
		collection: db.Collection("carts"),
	}
}

func (m mongoCartRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m mongoCartRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	filter := bson.M{"session_id": cart.SessionID}
	update := bson.M{"$set": bson.M{
		"session_id": cart.SessionID,
		"items":      cart.Items,
		"created_at": cart.CreatedAt,
		"updated_at": cart.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m mongoCartRepository) DeleteCart(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// EnsureCartIndexes creates the session uniqueness and TTL indexes. Called
// once at startup.
func EnsureCartIndexes(ctx context.Context, db *mongo.Database) error {
	m := &mongoCartRepository{collection: db.Collection("carts")}
	return m.createIndexes(ctx)
}

func (m *mongoCartRepository) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // abandoned carts expire after 90 days
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
