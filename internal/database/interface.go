package database

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist. Malformed IDs are
	// reported as not found as well.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when a username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned when an email address is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
)

// DB defines the storage operations used by the engine.
// Implementations must treat usernames and emails as already lower-cased.
type DB interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUserPassword(ctx context.Context, username, passwordHash string) error
	UpdateUserProfileImage(ctx context.Context, username, imageURL string) error
	// DeleteUser removes the user, their saved recipes and every recipe they created.
	// It returns the number of recipes deleted.
	DeleteUser(ctx context.Context, username string) (int64, error)

	// Recipes
	CreateRecipe(ctx context.Context, recipe *Recipe) error
	GetRecipeByID(ctx context.Context, id string) (*Recipe, error)
	GetRecipes(ctx context.Context) ([]Recipe, error)
	GetRecipesByMeal(ctx context.Context, meal MealType) ([]Recipe, error)
	GetRecipesByCreator(ctx context.Context, username string) ([]Recipe, error)
	GetRecipesSince(ctx context.Context, since time.Time) ([]Recipe, error)
	SearchRecipes(ctx context.Context, query string) ([]Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *Recipe) error
	DeleteRecipe(ctx context.Context, id string) error

	// Saved recipes
	// SaveRecipe appends the snapshot unless the user already saved recipeID.
	// It reports whether the snapshot was added.
	SaveRecipe(ctx context.Context, username, recipeID string, snapshot RecipeSnapshot) (bool, error)
	// RemoveSavedRecipe reports whether a snapshot was removed.
	RemoveSavedRecipe(ctx context.Context, username, recipeID string) (bool, error)
	GetSavedRecipes(ctx context.Context, username string) ([]SavedRecipe, error)

	// Subscribers
	// CreateSubscriber reports whether the email was newly subscribed.
	CreateSubscriber(ctx context.Context, email string) (bool, error)
	GetSubscribers(ctx context.Context) ([]Subscriber, error)

	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}
