package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ClientTestSuite struct {
	suite.Suite
	db  *Client
	ctx context.Context
}

func (s *ClientTestSuite) SetupTest() {
	db, err := New(filepath.Join(s.T().TempDir(), "data", "test.db"))
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()
}

func (s *ClientTestSuite) TearDownTest() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
}

func (s *ClientTestSuite) createUser(username, email string) *User {
	user := &User{Username: username, Email: email, PasswordHash: "hash"}
	s.Require().NoError(s.db.CreateUser(s.ctx, user))
	return user
}

func (s *ClientTestSuite) createRecipe(name string, meal MealType, creator string) *Recipe {
	recipe := &Recipe{
		Name:        name,
		Meal:        meal,
		CreatedBy:   creator,
		Description: name + " description",
		Ingredients: "salt",
	}
	s.Require().NoError(s.db.CreateRecipe(s.ctx, recipe))
	return recipe
}

func (s *ClientTestSuite) TestCreateUser_Duplicates() {
	s.createUser("alice", "a@x.com")

	err := s.db.CreateUser(s.ctx, &User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	s.ErrorIs(err, ErrDuplicateUsername)

	err = s.db.CreateUser(s.ctx, &User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
	s.ErrorIs(err, ErrDuplicateEmail)
}

func (s *ClientTestSuite) TestUserExists() {
	s.createUser("alice", "a@x.com")

	exists, err := s.db.UsernameExists(s.ctx, "alice")
	s.NoError(err)
	s.True(exists)

	exists, err = s.db.EmailExists(s.ctx, "a@x.com")
	s.NoError(err)
	s.True(exists)

	exists, err = s.db.UsernameExists(s.ctx, "bob")
	s.NoError(err)
	s.False(exists)
}

func (s *ClientTestSuite) TestGetUserByUsername_NotFound() {
	_, err := s.db.GetUserByUsername(s.ctx, "ghost")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ClientTestSuite) TestUpdateUser() {
	s.createUser("alice", "a@x.com")

	s.NoError(s.db.UpdateUserPassword(s.ctx, "alice", "newhash"))
	s.NoError(s.db.UpdateUserProfileImage(s.ctx, "alice", "https://img.example.com/a.png"))

	user, err := s.db.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("newhash", user.PasswordHash)
	s.Equal("https://img.example.com/a.png", user.ProfileImage)

	s.ErrorIs(s.db.UpdateUserPassword(s.ctx, "ghost", "x"), ErrNotFound)
}

func (s *ClientTestSuite) TestRecipeCRUD() {
	recipe := s.createRecipe("Oats", MealTypeBreakfast, "alice")
	s.NotEmpty(recipe.ID)

	got, err := s.db.GetRecipeByID(s.ctx, recipe.ID)
	s.Require().NoError(err)
	s.Equal("Oats", got.Name)
	s.Equal(MealTypeBreakfast, got.Meal)

	got.Name = "Overnight Oats"
	got.Meal = MealTypeLunch
	got.CreatedBy = "mallory"
	s.Require().NoError(s.db.UpdateRecipe(s.ctx, got))

	updated, err := s.db.GetRecipeByID(s.ctx, recipe.ID)
	s.Require().NoError(err)
	s.Equal("Overnight Oats", updated.Name)
	s.Equal(MealTypeLunch, updated.Meal)
	s.Equal("alice", updated.CreatedBy, "creator must never change")

	s.Require().NoError(s.db.DeleteRecipe(s.ctx, recipe.ID))
	_, err = s.db.GetRecipeByID(s.ctx, recipe.ID)
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(s.db.DeleteRecipe(s.ctx, recipe.ID), ErrNotFound)
	s.ErrorIs(s.db.UpdateRecipe(s.ctx, &Recipe{ID: "missing"}), ErrNotFound)
}

func (s *ClientTestSuite) TestGetRecipesByMealAndCreator() {
	s.createRecipe("Oats", MealTypeBreakfast, "alice")
	s.createRecipe("Pancakes", MealTypeBreakfast, "bob")
	s.createRecipe("Soup", MealTypeDinner, "alice")

	breakfast, err := s.db.GetRecipesByMeal(s.ctx, MealTypeBreakfast)
	s.NoError(err)
	s.Len(breakfast, 2)

	desserts, err := s.db.GetRecipesByMeal(s.ctx, MealTypeDesserts)
	s.NoError(err)
	s.Empty(desserts)

	alice, err := s.db.GetRecipesByCreator(s.ctx, "alice")
	s.NoError(err)
	s.Len(alice, 2)

	all, err := s.db.GetRecipes(s.ctx)
	s.NoError(err)
	s.Len(all, 3)
}

func (s *ClientTestSuite) TestGetRecipesSince() {
	s.createRecipe("Oats", MealTypeBreakfast, "alice")

	recent, err := s.db.GetRecipesSince(s.ctx, time.Now().Add(-time.Hour))
	s.NoError(err)
	s.Len(recent, 1)

	future, err := s.db.GetRecipesSince(s.ctx, time.Now().Add(time.Hour))
	s.NoError(err)
	s.Empty(future)
}

func (s *ClientTestSuite) TestSearchRecipes() {
	s.createRecipe("Chocolate Cake", MealTypeDesserts, "alice")
	s.createRecipe("Tomato Soup", MealTypeDinner, "alice")

	results, err := s.db.SearchRecipes(s.ctx, "chocolate")
	s.NoError(err)
	s.Require().Len(results, 1)
	s.Equal("Chocolate Cake", results[0].Name)

	results, err = s.db.SearchRecipes(s.ctx, "SOUP cake")
	s.NoError(err)
	s.Len(results, 2)

	results, err = s.db.SearchRecipes(s.ctx, "lasagne")
	s.NoError(err)
	s.Empty(results)

	results, err = s.db.SearchRecipes(s.ctx, "100%")
	s.NoError(err)
	s.Empty(results)

	results, err = s.db.SearchRecipes(s.ctx, "   ")
	s.NoError(err)
	s.Len(results, 2)
}

func (s *ClientTestSuite) TestSaveRecipe_NoDuplicates() {
	s.createUser("alice", "a@x.com")
	recipe := s.createRecipe("Oats", MealTypeBreakfast, "bob")

	added, err := s.db.SaveRecipe(s.ctx, "alice", recipe.ID, recipe.Snapshot())
	s.NoError(err)
	s.True(added)

	added, err = s.db.SaveRecipe(s.ctx, "alice", recipe.ID, recipe.Snapshot())
	s.NoError(err)
	s.False(added)

	saved, err := s.db.GetSavedRecipes(s.ctx, "alice")
	s.NoError(err)
	s.Require().Len(saved, 1)
	s.Equal(recipe.ID, saved[0].RecipeID)
	s.Equal("Oats", saved[0].Recipe.Name)
}

func (s *ClientTestSuite) TestSaveRecipe_SnapshotDoesNotPropagate() {
	s.createUser("alice", "a@x.com")
	recipe := s.createRecipe("Oats", MealTypeBreakfast, "bob")

	_, err := s.db.SaveRecipe(s.ctx, "alice", recipe.ID, recipe.Snapshot())
	s.Require().NoError(err)

	recipe.Name = "Changed"
	s.Require().NoError(s.db.UpdateRecipe(s.ctx, recipe))
	s.Require().NoError(s.db.DeleteRecipe(s.ctx, recipe.ID))

	saved, err := s.db.GetSavedRecipes(s.ctx, "alice")
	s.NoError(err)
	s.Require().Len(saved, 1)
	s.Equal("Oats", saved[0].Recipe.Name)
}

func (s *ClientTestSuite) TestSaveRecipe_UnknownUser() {
	_, err := s.db.SaveRecipe(s.ctx, "ghost", "r1", RecipeSnapshot{Name: "x"})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ClientTestSuite) TestRemoveSavedRecipe() {
	s.createUser("alice", "a@x.com")
	s.createUser("bob", "b@x.com")
	recipe := s.createRecipe("Oats", MealTypeBreakfast, "carol")

	_, err := s.db.SaveRecipe(s.ctx, "alice", recipe.ID, recipe.Snapshot())
	s.Require().NoError(err)
	_, err = s.db.SaveRecipe(s.ctx, "bob", recipe.ID, recipe.Snapshot())
	s.Require().NoError(err)

	removed, err := s.db.RemoveSavedRecipe(s.ctx, "alice", "not-saved")
	s.NoError(err)
	s.False(removed)

	removed, err = s.db.RemoveSavedRecipe(s.ctx, "alice", recipe.ID)
	s.NoError(err)
	s.True(removed)

	saved, err := s.db.GetSavedRecipes(s.ctx, "alice")
	s.NoError(err)
	s.Empty(saved)

	saved, err = s.db.GetSavedRecipes(s.ctx, "bob")
	s.NoError(err)
	s.Len(saved, 1, "other users' saved lists are untouched")
}

func (s *ClientTestSuite) TestDeleteUser_Cascades() {
	s.createUser("alice", "a@x.com")
	s.createUser("bob", "b@x.com")
	aliceRecipe := s.createRecipe("Oats", MealTypeBreakfast, "alice")
	s.createRecipe("Soup", MealTypeDinner, "alice")
	bobRecipe := s.createRecipe("Cake", MealTypeDesserts, "bob")

	_, err := s.db.SaveRecipe(s.ctx, "alice", bobRecipe.ID, bobRecipe.Snapshot())
	s.Require().NoError(err)
	_, err = s.db.SaveRecipe(s.ctx, "bob", aliceRecipe.ID, aliceRecipe.Snapshot())
	s.Require().NoError(err)

	deleted, err := s.db.DeleteUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)

	_, err = s.db.GetUserByUsername(s.ctx, "alice")
	s.ErrorIs(err, ErrNotFound)

	remaining, err := s.db.GetRecipes(s.ctx)
	s.NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal("bob", remaining[0].CreatedBy)

	stats, err := s.db.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.SavedRecipes, "only bob's orphaned snapshot is left")

	// the username can be registered again
	s.createUser("alice", "a@x.com")

	_, err = s.db.DeleteUser(s.ctx, "ghost")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ClientTestSuite) TestSubscribers() {
	created, err := s.db.CreateSubscriber(s.ctx, "news@x.com")
	s.NoError(err)
	s.True(created)

	created, err = s.db.CreateSubscriber(s.ctx, "news@x.com")
	s.NoError(err)
	s.False(created)

	subscribers, err := s.db.GetSubscribers(s.ctx)
	s.NoError(err)
	s.Require().Len(subscribers, 1)
	s.Equal("news@x.com", subscribers[0].Email)
}

func (s *ClientTestSuite) TestGetStats() {
	s.createUser("alice", "a@x.com")
	s.createRecipe("Oats", MealTypeBreakfast, "alice")
	s.createRecipe("Cake", MealTypeDesserts, "alice")
	_, err := s.db.CreateSubscriber(s.ctx, "news@x.com")
	s.Require().NoError(err)

	stats, err := s.db.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.Users)
	s.Equal(int64(2), stats.Recipes)
	s.Equal(int64(1), stats.Subscribers)
	s.Equal(int64(1), stats.RecipesByMeal[MealTypeBreakfast])
	s.Equal(int64(0), stats.RecipesByMeal[MealTypeLunch])
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestParseMealType(t *testing.T) {
	tests := []struct {
		in   string
		want MealType
		ok   bool
	}{
		{"breakfast", MealTypeBreakfast, true},
		{"LUNCH", MealTypeLunch, true},
		{" Dinner ", MealTypeDinner, true},
		{"desserts", MealTypeDesserts, true},
		{"snacks", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMealType(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "desserts", MealTypeDesserts.Slug())
}

func TestRecipeSnapshot(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Recipe{ID: "r1", Name: "Oats", Meal: MealTypeBreakfast, CreatedBy: "alice", CreatedAt: created, Method: "stir"}
	snap := r.Snapshot()
	require.Equal(t, "Oats", snap.Name)
	assert.Equal(t, "alice", snap.CreatedBy)
	assert.Equal(t, created, snap.DateCreated)
	assert.Equal(t, "stir", snap.Method)
}
