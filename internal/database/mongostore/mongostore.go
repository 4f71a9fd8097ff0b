// Package mongostore implements database.DB on top of MongoDB.
//
// Users embed their saved recipe snapshots in a saved_recipes array, so saving and
// removing a recipe is a single conditional update on the user document.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	recipesCollection     = "recipes"
	usersCollection       = "users"
	subscribersCollection = "subscribers"

	connectTimeout = 10 * time.Second
)

var _ database.DB = (*Store)(nil) // Ensure Store implements database.DB

// Store is a MongoDB backed database.DB.
type Store struct {
	client      *mongo.Client
	recipes     *mongo.Collection
	users       *mongo.Collection
	subscribers *mongo.Collection
}

// New connects to MongoDB, verifies the connection, upgrades legacy documents
// and creates the indexes.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:      client,
		recipes:     db.Collection(recipesCollection),
		users:       db.Collection(usersCollection),
		subscribers: db.Collection(subscribersCollection),
	}

	// legacy subscribers have no email field, which would break its unique index
	if err := s.upgradeLegacy(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("Connected to mongodb", "database", dbName)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.recipes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "meal", Value: 1}}},
			{Keys: bson.D{{Key: "created_by", Value: 1}}},
			{Keys: bson.D{{Key: "date_created", Value: -1}}},
		}},
		{s.subscribers, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// GetStats returns document counts for all collections.
func (s *Store) GetStats(ctx context.Context) (*database.Stats, error) {
	stats := database.Stats{RecipesByMeal: make(map[database.MealType]int64, len(database.MealTypes))}

	var err error
	if stats.Users, err = s.users.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.Recipes, err = s.recipes.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	if stats.Subscribers, err = s.subscribers.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}

	for _, meal := range database.MealTypes {
		n, err := s.recipes.CountDocuments(ctx, bson.D{{Key: "meal", Value: meal}})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s recipes: %w", meal, err)
		}
		stats.RecipesByMeal[meal] = n
	}

	cursor, err := s.users.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "n", Value: bson.D{{Key: "$size", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$saved_recipes", bson.A{}}},
			}}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$n"}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count saved recipes: %w", err)
	}
	var totals []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to count saved recipes: %w", err)
	}
	if len(totals) > 0 {
		stats.SavedRecipes = totals[0].Total
	}

	return &stats, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return database.ErrNotFound
	}
	return err
}

func isDuplicateKey(err error, field string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), field)
}
