package mongostore

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SaveRecipe pushes the snapshot only if no entry with recipeID exists yet,
// in a single update.
func (s *Store) SaveRecipe(ctx context.Context, username, recipeID string, snapshot database.RecipeSnapshot) (bool, error) {
	res, err := s.users.UpdateOne(ctx,
		bson.D{
			{Key: "username", Value: username},
			{Key: "saved_recipes.recipe_id", Value: bson.D{{Key: "$ne", Value: recipeID}}},
		},
		bson.D{{Key: "$push", Value: bson.D{
			{Key: "saved_recipes", Value: newSavedDoc(recipeID, snapshot, time.Now())},
		}}},
	)
	if err != nil {
		log.Error("failed to save recipe", "username", username, "recipe", recipeID, "error", err)
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	exists, err := s.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, database.ErrNotFound
	}
	return false, nil
}

func (s *Store) RemoveSavedRecipe(ctx context.Context, username, recipeID string) (bool, error) {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "saved_recipes", Value: bson.D{{Key: "recipe_id", Value: recipeID}}},
		}}},
	)
	if err != nil {
		log.Error("failed to remove saved recipe", "username", username, "recipe", recipeID, "error", err)
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// GetSavedRecipes returns the saved snapshots of a user, most recently saved first.
func (s *Store) GetSavedRecipes(ctx context.Context, username string) ([]database.SavedRecipe, error) {
	var doc userDoc
	opts := options.FindOne().SetProjection(bson.D{{Key: "saved_recipes", Value: 1}})
	if err := s.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}, opts).Decode(&doc); err != nil {
		err = translateNotFound(err)
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		log.Error("failed to get saved recipes", "username", username, "error", err)
		return nil, err
	}

	saved := make([]database.SavedRecipe, 0, len(doc.SavedRecipes))
	for i := range doc.SavedRecipes {
		saved = append(saved, doc.SavedRecipes[i].toModel(uint(i+1)))
	}
	slices.Reverse(saved)
	return saved, nil
}
