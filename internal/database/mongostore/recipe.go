package mongostore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mealshare/mealshare/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var searchFields = []string{"name", "description", "ingredients"}

// objectID parses a recipe ID. Malformed IDs are reported as not found.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, database.ErrNotFound
	}
	return oid, nil
}

func (s *Store) CreateRecipe(ctx context.Context, recipe *database.Recipe) error {
	now := time.Now()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	doc := newRecipeDoc(recipe)
	doc.ID = bson.NewObjectID()
	if _, err := s.recipes.InsertOne(ctx, doc); err != nil {
		log.Error("failed to create recipe", "error", err)
		return err
	}
	recipe.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetRecipeByID(ctx context.Context, id string) (*database.Recipe, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc recipeDoc
	if err := s.recipes.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		return nil, translateNotFound(err)
	}
	recipe := doc.toModel()
	return &recipe, nil
}

func (s *Store) GetRecipes(ctx context.Context) ([]database.Recipe, error) {
	return s.findRecipes(ctx, bson.D{})
}

func (s *Store) GetRecipesByMeal(ctx context.Context, meal database.MealType) ([]database.Recipe, error) {
	return s.findRecipes(ctx, bson.D{{Key: "meal", Value: string(meal)}})
}

func (s *Store) GetRecipesByCreator(ctx context.Context, username string) ([]database.Recipe, error) {
	return s.findRecipes(ctx, bson.D{{Key: "created_by", Value: username}})
}

func (s *Store) GetRecipesSince(ctx context.Context, since time.Time) ([]database.Recipe, error) {
	return s.findRecipes(ctx, bson.D{{Key: "date_created", Value: bson.D{{Key: "$gte", Value: since}}}})
}

// SearchRecipes matches recipes whose name, description or ingredients
// contain any of the words in query, ignoring case. Words match as
// substrings, like the LIKE search of the sqlite store.
func (s *Store) SearchRecipes(ctx context.Context, query string) ([]database.Recipe, error) {
	filter := searchFilter(query)
	if filter == nil {
		return s.GetRecipes(ctx)
	}
	return s.findRecipes(ctx, filter)
}

// searchFilter builds the filter of SearchRecipes, nil for a blank query.
func searchFilter(query string) bson.D {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil
	}

	conditions := make(bson.A, 0, len(terms)*len(searchFields))
	for _, term := range terms {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		for _, field := range searchFields {
			conditions = append(conditions, bson.D{{Key: field, Value: pattern}})
		}
	}
	return bson.D{{Key: "$or", Value: conditions}}
}

func (s *Store) findRecipes(ctx context.Context, filter bson.D) ([]database.Recipe, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_created", Value: -1}})
	cursor, err := s.recipes.Find(ctx, filter, opts)
	if err != nil {
		log.Error("failed to get recipes", "error", err)
		return nil, err
	}

	var docs []recipeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error("failed to decode recipes", "error", err)
		return nil, err
	}

	recipes := make([]database.Recipe, 0, len(docs))
	for i := range docs {
		recipes = append(recipes, docs[i].toModel())
	}
	return recipes, nil
}

// UpdateRecipe overwrites the editable fields of the recipe. Creator and
// creation date are never changed.
func (s *Store) UpdateRecipe(ctx context.Context, recipe *database.Recipe) error {
	oid, err := objectID(recipe.ID)
	if err != nil {
		return err
	}
	res, err := s.recipes.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "meal", Value: string(recipe.Meal)},
			{Key: "name", Value: recipe.Name},
			{Key: "ingredients", Value: recipe.Ingredients},
			{Key: "description", Value: recipe.Description},
			{Key: "recommendation", Value: recipe.Recommendation},
			{Key: "yield", Value: recipe.Yield},
			{Key: "active_time", Value: recipe.ActiveTime},
			{Key: "total_time", Value: recipe.TotalTime},
			{Key: "image_url", Value: recipe.ImageURL},
			{Key: "method", Value: recipe.Method},
			{Key: "updated_at", Value: time.Now()},
		}}},
	)
	if err != nil {
		log.Error("failed to update recipe", "id", recipe.ID, "error", err)
		return err
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.recipes.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		log.Error("failed to delete recipe", "id", id, "error", err)
		return err
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
