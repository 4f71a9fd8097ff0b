package database

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealType is one of the fixed recipe categories.
type MealType string

const (
	MealTypeBreakfast MealType = "Breakfast"
	MealTypeLunch     MealType = "Lunch"
	MealTypeDinner    MealType = "Dinner"
	MealTypeDesserts  MealType = "Desserts"
)

// MealTypes lists all valid meal categories in display order.
var MealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeDesserts}

// ParseMealType matches s case-insensitively against the known meal categories.
func ParseMealType(s string) (MealType, bool) {
	for _, m := range MealTypes {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, true
		}
	}
	return "", false
}

// Slug returns the lower-case form used in URLs.
func (m MealType) Slug() string {
	return strings.ToLower(string(m))
}

// User is a registered account. Username and Email are always stored lower-cased.
type User struct {
	ID           uint `gorm:"primarykey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	ProfileImage string
	SavedRecipes []SavedRecipe `gorm:"constraint:OnDelete:CASCADE;"`
}

// JoinedAt returns the registration time of the user.
func (u *User) JoinedAt() time.Time {
	return u.CreatedAt
}

// Recipe is a recipe as created by a user.
type Recipe struct {
	ID             string `gorm:"primarykey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Meal           MealType `gorm:"not null;index"`
	Name           string   `gorm:"not null"`
	Ingredients    string
	Description    string
	Recommendation string
	Yield          string
	ActiveTime     string
	TotalTime      string
	ImageURL       string
	Method         string
	CreatedBy      string `gorm:"not null;index"`
}

// BeforeCreate assigns a random ID to recipes that don't have one yet.
func (r *Recipe) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Snapshot returns an immutable copy of the recipe as it looks right now.
func (r *Recipe) Snapshot() RecipeSnapshot {
	return RecipeSnapshot{
		Meal:           r.Meal,
		Name:           r.Name,
		Ingredients:    r.Ingredients,
		Description:    r.Description,
		Recommendation: r.Recommendation,
		Yield:          r.Yield,
		ActiveTime:     r.ActiveTime,
		TotalTime:      r.TotalTime,
		ImageURL:       r.ImageURL,
		Method:         r.Method,
		CreatedBy:      r.CreatedBy,
		DateCreated:    r.CreatedAt,
	}
}

// RecipeSnapshot is the denormalized copy of a recipe stored in a user's saved list.
// It is never updated after it was taken: later edits or deletion of the source
// recipe are not reflected.
type RecipeSnapshot struct {
	Meal           MealType
	Name           string
	Ingredients    string
	Description    string
	Recommendation string
	Yield          string
	ActiveTime     string
	TotalTime      string
	ImageURL       string
	Method         string
	CreatedBy      string
	DateCreated    time.Time
}

// SavedRecipe links a user to a snapshot of a recipe.
type SavedRecipe struct {
	ID       uint           `gorm:"primarykey"`
	SavedAt  time.Time      `gorm:"autoCreateTime"`
	UserID   uint           `gorm:"not null;uniqueIndex:idx_saved_user_recipe"`
	RecipeID string         `gorm:"not null;uniqueIndex:idx_saved_user_recipe"`
	Recipe   RecipeSnapshot `gorm:"embedded;embeddedPrefix:recipe_"`
}

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Email     string `gorm:"uniqueIndex;not null"`
}

// Stats contains record counts for the db-stats command.
type Stats struct {
	Users         int64
	Recipes       int64
	SavedRecipes  int64
	Subscribers   int64
	RecipesByMeal map[MealType]int64
}
