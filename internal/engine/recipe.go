package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RecipeInput holds the values of the add and edit recipe forms.
type RecipeInput struct {
	Meal           string
	Name           string
	Ingredients    string
	Description    string
	Recommendation string
	Yield          string
	ActiveTime     string
	TotalTime      string
	ImageURL       string
	Method         string
}

// apply validates the input and writes the normalized values into r.
func (e *Engine) apply(in RecipeInput, r *database.Recipe) error {
	meal, ok := database.ParseMealType(in.Meal)
	if !ok {
		return fmt.Errorf("%w: unknown meal %q", ErrInvalidInput, in.Meal)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	r.Meal = meal
	r.Name = name
	r.Ingredients = in.Ingredients
	r.Method = in.Method
	r.Yield = strings.TrimSpace(in.Yield)
	r.Description = capitalizeFirst(strings.TrimSpace(in.Description))
	r.Recommendation = capitalizeFirst(strings.TrimSpace(in.Recommendation))
	r.ActiveTime = normalizeDuration(in.ActiveTime)
	r.TotalTime = normalizeDuration(in.TotalTime)
	r.ImageURL = strings.TrimSpace(in.ImageURL)

	if r.ImageURL == "" && e.cfg.Defaults != nil {
		r.ImageURL = e.cfg.Defaults.RecipeImage
	}
	if r.Recommendation == "" && e.cfg.Defaults != nil {
		r.Recommendation = e.cfg.Defaults.Recommendation
	}
	return nil
}

// capitalizeFirst upper-cases the first letter and leaves the rest untouched.
func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// normalizeDuration spells out "mins" and title-cases the result,
// so "20 mins" becomes "20 Minutes".
func normalizeDuration(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(s, "mins", "minutes"))
}

// CreateRecipe stores a new recipe created by the actor.
func (e *Engine) CreateRecipe(ctx context.Context, actor Actor, in RecipeInput) (*database.Recipe, error) {
	if actor.Username == "" {
		return nil, ErrForbidden
	}

	recipe := &database.Recipe{CreatedBy: actor.Username}
	if err := e.apply(in, recipe); err != nil {
		return nil, err
	}
	if err := e.db.CreateRecipe(ctx, recipe); err != nil {
		return nil, err
	}

	e.cache.Invalidate(ctx, "", recipe.Meal)
	log.Info("Recipe created", "id", recipe.ID, "name", recipe.Name, "by", actor.Username)
	return recipe, nil
}

// GetRecipe returns the recipe with the given ID.
func (e *Engine) GetRecipe(ctx context.Context, id string) (*database.Recipe, error) {
	if recipe, ok := e.cache.GetRecipe(ctx, id); ok {
		return recipe, nil
	}
	recipe, err := e.db.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.cache.SetRecipe(ctx, recipe)
	return recipe, nil
}

// ListRecipes returns all recipes, newest first.
func (e *Engine) ListRecipes(ctx context.Context) ([]database.Recipe, error) {
	return e.db.GetRecipes(ctx)
}

// ListRecipesByMeal returns the recipes of a meal category. The category is
// matched case-insensitively; unknown categories are ErrNotFound.
func (e *Engine) ListRecipesByMeal(ctx context.Context, meal string) (database.MealType, []database.Recipe, error) {
	mealType, ok := database.ParseMealType(meal)
	if !ok {
		return "", nil, ErrNotFound
	}
	if recipes, ok := e.cache.GetMeal(ctx, mealType); ok {
		return mealType, recipes, nil
	}
	recipes, err := e.db.GetRecipesByMeal(ctx, mealType)
	if err != nil {
		return "", nil, err
	}
	e.cache.SetMeal(ctx, mealType, recipes)
	return mealType, recipes, nil
}

// Search returns the recipes matching any word of query. A blank query returns
// every recipe.
func (e *Engine) Search(ctx context.Context, query string) ([]database.Recipe, error) {
	return e.db.SearchRecipes(ctx, strings.TrimSpace(query))
}

// EditableRecipe returns the recipe if the actor may edit it.
func (e *Engine) EditableRecipe(ctx context.Context, actor Actor, id string) (*database.Recipe, error) {
	recipe, err := e.db.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(recipe.CreatedBy) {
		return nil, ErrForbidden
	}
	return recipe, nil
}

// UpdateRecipe overwrites a recipe. Only its creator or an admin may do so.
func (e *Engine) UpdateRecipe(ctx context.Context, actor Actor, id string, in RecipeInput) (*database.Recipe, error) {
	recipe, err := e.EditableRecipe(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	oldMeal := recipe.Meal

	if err := e.apply(in, recipe); err != nil {
		return nil, err
	}
	if err := e.db.UpdateRecipe(ctx, recipe); err != nil {
		return nil, err
	}

	e.cache.Invalidate(ctx, id, oldMeal, recipe.Meal)
	log.Info("Recipe updated", "id", id, "by", actor.Username)
	return recipe, nil
}

// DeleteRecipe removes a recipe. Only its creator or an admin may do so.
// Snapshots in saved lists are kept.
func (e *Engine) DeleteRecipe(ctx context.Context, actor Actor, id string) error {
	recipe, err := e.EditableRecipe(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := e.db.DeleteRecipe(ctx, id); err != nil {
		return err
	}

	e.cache.Invalidate(ctx, id, recipe.Meal)
	log.Info("Recipe deleted", "id", id, "by", actor.Username)
	return nil
}
