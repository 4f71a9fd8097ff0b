package mongostore

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func (s *Store) CreateSubscriber(ctx context.Context, email string) (bool, error) {
	_, err := s.subscribers.InsertOne(ctx, subscriberDoc{Email: email, CreatedAt: time.Now()})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		log.Error("failed to create subscriber", "error", err)
		return false, err
	}
	return true, nil
}

func (s *Store) GetSubscribers(ctx context.Context) ([]database.Subscriber, error) {
	cursor, err := s.subscribers.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		log.Error("failed to get subscribers", "error", err)
		return nil, err
	}
	var docs []subscriberDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	subscribers := make([]database.Subscriber, 0, len(docs))
	for i, d := range docs {
		d.normalize()
		subscribers = append(subscribers, database.Subscriber{
			ID:        uint(i + 1),
			CreatedAt: d.CreatedAt,
			Email:     d.Email,
		})
	}
	return subscribers, nil
}
