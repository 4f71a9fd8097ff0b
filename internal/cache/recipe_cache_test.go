package cache

import (
	"context"
	"testing"

	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache() *RecipeCache {
	return NewRecipeCache(&config.CacheConfig{Type: config.CacheTypeMemory, TTL: 60})
}

func TestPrefixedCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewPrefixedCache[map[string]int](newMemoryCache(), config.CacheTypeMemory, "test-")

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, got["a"])
	assert.Equal(t, config.CacheTypeMemory, c.GetType())

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.Error(t, err)
}

func TestPrefixedCache_SharedStoreKeepsPrefixesApart(t *testing.T) {
	ctx := context.Background()
	shared := newMemoryCache()
	a := NewPrefixedCache[string](shared, config.CacheTypeMemory, "a-")
	b := NewPrefixedCache[string](shared, config.CacheTypeMemory, "b-")

	require.NoError(t, a.Set(ctx, "key", "from a"))
	require.NoError(t, b.Set(ctx, "key", "from b"))

	got, err := a.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "from a", got)
}

func TestRecipeCache_Recipe(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	_, ok := c.GetRecipe(ctx, "r1")
	assert.False(t, ok)

	c.SetRecipe(ctx, &database.Recipe{ID: "r1", Name: "Oats", Meal: database.MealTypeBreakfast})
	got, ok := c.GetRecipe(ctx, "r1")
	require.True(t, ok)
	assert.Equal(t, "Oats", got.Name)
	assert.Equal(t, database.MealTypeBreakfast, got.Meal)

	c.Invalidate(ctx, "r1")
	_, ok = c.GetRecipe(ctx, "r1")
	assert.False(t, ok)
}

func TestRecipeCache_Meal(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	c.SetMeal(ctx, database.MealTypeLunch, []database.Recipe{{ID: "r1"}, {ID: "r2"}})
	c.SetMeal(ctx, database.MealTypeDinner, []database.Recipe{{ID: "r3"}})

	got, ok := c.GetMeal(ctx, database.MealTypeLunch)
	require.True(t, ok)
	assert.Len(t, got, 2)

	c.Invalidate(ctx, "", database.MealTypeLunch)
	_, ok = c.GetMeal(ctx, database.MealTypeLunch)
	assert.False(t, ok)
	_, ok = c.GetMeal(ctx, database.MealTypeDinner)
	assert.True(t, ok)

	c.InvalidateMeals(ctx)
	_, ok = c.GetMeal(ctx, database.MealTypeDinner)
	assert.False(t, ok)
}

func TestRecipeCache_ClearAll(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	c.SetRecipe(ctx, &database.Recipe{ID: "r1"})
	c.SetMeal(ctx, database.MealTypeLunch, []database.Recipe{{ID: "r1"}})
	c.ClearAll(ctx)

	_, ok := c.GetRecipe(ctx, "r1")
	assert.False(t, ok)
	_, ok = c.GetMeal(ctx, database.MealTypeLunch)
	assert.False(t, ok)
	assert.Len(t, c.GetStats(), 2)
}
