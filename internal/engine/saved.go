package engine

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
)

// SaveRecipe adds a snapshot of the recipe to the actor's saved list.
// Saving a recipe twice returns ErrAlreadySaved and leaves the list unchanged.
func (e *Engine) SaveRecipe(ctx context.Context, actor Actor, recipeID string) error {
	recipe, err := e.db.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return err
	}

	added, err := e.db.SaveRecipe(ctx, actor.Username, recipe.ID, recipe.Snapshot())
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadySaved
	}
	log.Debug("Recipe saved", "id", recipeID, "by", actor.Username)
	return nil
}

// RemoveSavedRecipe drops the recipe from the actor's saved list. Removing a
// recipe that is not in the list is not an error.
func (e *Engine) RemoveSavedRecipe(ctx context.Context, actor Actor, recipeID string) error {
	removed, err := e.db.RemoveSavedRecipe(ctx, actor.Username, recipeID)
	if err != nil {
		return err
	}
	if removed {
		log.Debug("Recipe removed from saved list", "id", recipeID, "by", actor.Username)
	}
	return nil
}

// SavedRecipes returns the actor's saved snapshots, most recently saved first.
func (e *Engine) SavedRecipes(ctx context.Context, actor Actor) ([]database.SavedRecipe, error) {
	return e.db.GetSavedRecipes(ctx, actor.Username)
}
