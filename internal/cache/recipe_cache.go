package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
)

// Cache key prefixes.
const (
	RecipeCachePrefix     = "recipe-"
	MealRecipeCachePrefix = "meal-recipes-"
)

// RecipeCache holds the read-through caches for single recipes and meal listings.
type RecipeCache struct {
	ByID   *PrefixedCache[database.Recipe]
	ByMeal *PrefixedCache[[]database.Recipe]

	cacheType config.CacheType
	ttl       time.Duration
}

// NewRecipeCache creates the recipe caches using the configured store.
// A nil config selects the in-memory store.
func NewRecipeCache(cfg *config.CacheConfig) *RecipeCache {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory}
	}
	return &RecipeCache{
		ByID: NewPrefixedCache[database.Recipe](
			newCacheInstanceByType(cfg),
			cfg.Type,
			RecipeCachePrefix,
		),
		ByMeal: NewPrefixedCache[[]database.Recipe](
			newCacheInstanceByType(cfg),
			cfg.Type,
			MealRecipeCachePrefix,
		),
		cacheType: cfg.Type,
		ttl:       time.Duration(cfg.GetCacheTTLSeconds()) * time.Second,
	}
}

// TTL returns the lifetime of cached entries.
func (r *RecipeCache) TTL() time.Duration {
	return r.ttl
}

func (r *RecipeCache) expiration() store.Option {
	return store.WithExpiration(r.ttl)
}

// GetRecipe returns a cached recipe. Any cache error is reported as a miss.
func (r *RecipeCache) GetRecipe(ctx context.Context, id string) (*database.Recipe, bool) {
	recipe, err := r.ByID.Get(ctx, id)
	if err != nil {
		return nil, false
	}
	log.Debug("Cache hit for recipe", "id", id)
	return &recipe, true
}

func (r *RecipeCache) SetRecipe(ctx context.Context, recipe *database.Recipe) {
	if err := r.ByID.Set(ctx, recipe.ID, *recipe, r.expiration()); err != nil {
		log.Warn("failed to cache recipe", "id", recipe.ID, "error", err)
	}
}

// GetMeal returns the cached recipe listing of a meal category.
func (r *RecipeCache) GetMeal(ctx context.Context, meal database.MealType) ([]database.Recipe, bool) {
	recipes, err := r.ByMeal.Get(ctx, meal.Slug())
	if err != nil {
		return nil, false
	}
	log.Debug("Cache hit for meal recipes", "meal", meal)
	return recipes, true
}

func (r *RecipeCache) SetMeal(ctx context.Context, meal database.MealType, recipes []database.Recipe) {
	if err := r.ByMeal.Set(ctx, meal.Slug(), recipes, r.expiration()); err != nil {
		log.Warn("failed to cache meal recipes", "meal", meal, "error", err)
	}
}

// Invalidate drops the cached recipe and the listings of the given meals.
func (r *RecipeCache) Invalidate(ctx context.Context, id string, meals ...database.MealType) {
	if id != "" {
		if err := r.ByID.Delete(ctx, id); err != nil {
			log.Debug("failed to invalidate cached recipe", "id", id, "error", err)
		}
	}
	for _, meal := range meals {
		if err := r.ByMeal.Delete(ctx, meal.Slug()); err != nil {
			log.Debug("failed to invalidate cached meal recipes", "meal", meal, "error", err)
		}
	}
}

// InvalidateMeals drops all cached meal listings.
func (r *RecipeCache) InvalidateMeals(ctx context.Context) {
	r.Invalidate(ctx, "", database.MealTypes...)
}

// ClearAll empties the in-memory caches. Redis entries expire on their own ttl
// and are left alone so a shared redis is never flushed.
func (r *RecipeCache) ClearAll(ctx context.Context) {
	if r.cacheType == config.CacheTypeRedis {
		return
	}
	errs := []error{
		r.ByID.Clear(ctx),
		r.ByMeal.Clear(ctx),
	}
	for _, err := range errs {
		if err != nil {
			log.Errorf("failed to clear cache: %v", err)
		}
	}
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

func (r *RecipeCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     r.ByID.GetStats(),
			CacheName: "recipes",
		},
		{
			Stats:     r.ByMeal.GetStats(),
			CacheName: "meal-recipes",
		},
	}
}
