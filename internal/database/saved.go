package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (c *Client) userIDQuery(ctx context.Context, username string) *gorm.DB {
	return c.db.WithContext(ctx).Model(&User{}).Select("id").Where("username = ?", username)
}

func (c *Client) SaveRecipe(ctx context.Context, username, recipeID string, snapshot RecipeSnapshot) (bool, error) {
	user, err := c.GetUserByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	saved := SavedRecipe{
		UserID:   user.ID,
		RecipeID: recipeID,
		Recipe:   snapshot,
	}
	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
		DoNothing: true,
	}).Create(&saved)
	if result.Error != nil {
		log.Error("failed to save recipe", "username", username, "recipe", recipeID, "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) RemoveSavedRecipe(ctx context.Context, username, recipeID string) (bool, error) {
	result := c.db.WithContext(ctx).
		Where("recipe_id = ? AND user_id IN (?)", recipeID, c.userIDQuery(ctx, username)).
		Delete(&SavedRecipe{})
	if result.Error != nil {
		log.Error("failed to remove saved recipe", "username", username, "recipe", recipeID, "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetSavedRecipes returns the saved snapshots of a user, most recently saved first.
func (c *Client) GetSavedRecipes(ctx context.Context, username string) ([]SavedRecipe, error) {
	var saved []SavedRecipe
	if err := c.db.WithContext(ctx).
		Where("user_id IN (?)", c.userIDQuery(ctx, username)).
		Order("saved_at DESC").
		Order("id DESC").
		Find(&saved).Error; err != nil {
		log.Error("failed to get saved recipes", "username", username, "error", err)
		return nil, err
	}
	return saved, nil
}
