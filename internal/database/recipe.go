package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (c *Client) CreateRecipe(ctx context.Context, recipe *Recipe) error {
	if err := c.db.WithContext(ctx).Create(recipe).Error; err != nil {
		log.Error("failed to create recipe", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetRecipeByID(ctx context.Context, id string) (*Recipe, error) {
	var recipe Recipe
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get recipe by ID", "error", err)
		}
		return nil, translateNotFound(err)
	}
	return &recipe, nil
}

// GetRecipes returns all recipes, newest first.
func (c *Client) GetRecipes(ctx context.Context) ([]Recipe, error) {
	return c.findRecipes(ctx, c.db.WithContext(ctx))
}

func (c *Client) GetRecipesByMeal(ctx context.Context, meal MealType) ([]Recipe, error) {
	return c.findRecipes(ctx, c.db.WithContext(ctx).Where("meal = ?", meal))
}

func (c *Client) GetRecipesByCreator(ctx context.Context, username string) ([]Recipe, error) {
	return c.findRecipes(ctx, c.db.WithContext(ctx).Where("created_by = ?", username))
}

func (c *Client) GetRecipesSince(ctx context.Context, since time.Time) ([]Recipe, error) {
	return c.findRecipes(ctx, c.db.WithContext(ctx).Where("created_at >= ?", since))
}

// SearchRecipes matches any of the whitespace separated terms in query against
// the name, description and ingredients of a recipe. Matching is case-insensitive.
func (c *Client) SearchRecipes(ctx context.Context, query string) ([]Recipe, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return c.GetRecipes(ctx)
	}

	conditions := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*3)
	for _, term := range terms {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		conditions = append(conditions,
			`(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR ingredients LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	return c.findRecipes(ctx, c.db.WithContext(ctx).Where(strings.Join(conditions, " OR "), args...))
}

func (c *Client) findRecipes(_ context.Context, tx *gorm.DB) ([]Recipe, error) {
	var recipes []Recipe
	result := tx.Order("created_at DESC").Find(&recipes)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Error("failed to get recipes", "error", result.Error)
		return nil, result.Error
	}
	return recipes, nil
}

// UpdateRecipe overwrites the editable fields of the recipe with the given ID.
// Creator and creation date are never changed.
func (c *Client) UpdateRecipe(ctx context.Context, recipe *Recipe) error {
	result := c.db.WithContext(ctx).Model(&Recipe{}).
		Where("id = ?", recipe.ID).
		Updates(map[string]any{
			"meal":           recipe.Meal,
			"name":           recipe.Name,
			"ingredients":    recipe.Ingredients,
			"description":    recipe.Description,
			"recommendation": recipe.Recommendation,
			"yield":          recipe.Yield,
			"active_time":    recipe.ActiveTime,
			"total_time":     recipe.TotalTime,
			"image_url":      recipe.ImageURL,
			"method":         recipe.Method,
		})
	if result.Error != nil {
		log.Error("failed to update recipe", "id", recipe.ID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(&Recipe{})
	if result.Error != nil {
		log.Error("failed to delete recipe", "id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
