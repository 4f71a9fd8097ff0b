package models

import "time"

// User is the logged in user as stored in the session.
type User struct {
	Username string
	IsAdmin  bool
}

// Meal is a recipe category as shown in navigation and forms.
type Meal struct {
	Name string
	Slug string
}

// Recipe is a recipe prepared for rendering.
type Recipe struct {
	ID             string
	Meal           string
	MealSlug       string
	Name           string
	Ingredients    string
	Description    string
	Recommendation string
	Yield          string
	ActiveTime     string
	TotalTime      string
	ImageURL       string
	ThumbnailURL   string
	Method         string
	CreatedBy      string
	CreatedAt      time.Time
	// DateCreated is the creation date as dd/mm/yyyy.
	DateCreated string
	// CanEdit is set when the viewer may edit or delete the recipe.
	CanEdit bool
}

// SavedRecipe is an entry of the saved recipes page. Recipe holds the
// snapshot taken at save time, so Recipe.ID is the source recipe ID which may
// no longer exist.
type SavedRecipe struct {
	SavedAt time.Time
	Recipe  Recipe
}

// Profile is the data of the profile page.
type Profile struct {
	Username     string
	Email        string
	ProfileImage string
	DateJoined   string
	Recipes      []Recipe
	// Editable is set when the viewer may change or delete the account.
	Editable bool
	// Self is set when the viewer looks at their own profile.
	Self bool
}

// RecipeForm is the data of the add and edit recipe pages.
type RecipeForm struct {
	Title  string
	Action string
	Submit string
	Meals  []Meal
	Recipe Recipe
}

// Job is a background job as shown on the scheduler panel.
type Job struct {
	ID         string
	Name       string
	Schedule   string
	Status     string
	LastRun    string
	NextRun    string
	RunCount   string
	ErrorCount int
	LastError  string
}
