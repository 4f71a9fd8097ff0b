package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (s *Store) CreateUser(ctx context.Context, user *database.User) error {
	now := time.Now()
	doc := userDoc{
		Username:     user.Username,
		Email:        user.Email,
		Password:     user.PasswordHash,
		ProfileImage: user.ProfileImage,
		JoinDate:     now,
		UpdatedAt:    now,
		SavedRecipes: []savedDoc{},
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		switch {
		case isDuplicateKey(err, "email"):
			return database.ErrDuplicateEmail
		case isDuplicateKey(err, "username"):
			return database.ErrDuplicateUsername
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *Store) findUser(ctx context.Context, username string) (*userDoc, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&doc); err != nil {
		err = translateNotFound(err)
		if !errors.Is(err, database.ErrNotFound) {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	doc, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.userExists(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.userExists(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) userExists(ctx context.Context, filter bson.D) (bool, error) {
	n, err := s.users.CountDocuments(ctx, filter)
	if err != nil {
		log.Error("failed to check user existence", "error", err)
		return false, err
	}
	return n > 0, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	return s.setUserField(ctx, username, "password", passwordHash)
}

func (s *Store) UpdateUserProfileImage(ctx context.Context, username, imageURL string) error {
	return s.setUserField(ctx, username, "profile_image", imageURL)
}

func (s *Store) setUserField(ctx context.Context, username, field, value string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: field, Value: value},
			{Key: "updated_at", Value: time.Now()},
		}}},
	)
	if err != nil {
		log.Error("failed to update user", "field", field, "error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteUser removes the user document, which holds the saved list, and every
// recipe the user created. The two deletes are not atomic.
func (s *Store) DeleteUser(ctx context.Context, username string) (int64, error) {
	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "username", Value: username}})
	if err != nil {
		log.Error("failed to delete user", "username", username, "error", err)
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, database.ErrNotFound
	}

	recipes, err := s.recipes.DeleteMany(ctx, bson.D{{Key: "created_by", Value: username}})
	if err != nil {
		log.Error("failed to delete recipes of user", "username", username, "error", err)
		return 0, err
	}
	return recipes.DeletedCount, nil
}
