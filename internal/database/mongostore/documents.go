package mongostore

import (
	"time"

	"github.com/mealshare/mealshare/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	Password     string        `bson:"password"`
	ProfileImage string        `bson:"profile_image"`
	JoinDate     time.Time     `bson:"join_date"`
	UpdatedAt    time.Time     `bson:"updated_at"`
	SavedRecipes []savedDoc    `bson:"saved_recipes"`

	LegacyJoinDate docTime `bson:"date_joined,omitempty"`
}

func (d *userDoc) toModel() *database.User {
	d.normalize()
	return &database.User{
		CreatedAt:    d.JoinDate,
		UpdatedAt:    d.UpdatedAt,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		ProfileImage: d.ProfileImage,
	}
}

type recipeDoc struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Meal           string        `bson:"meal"`
	Name           string        `bson:"name"`
	Ingredients    string        `bson:"ingredients"`
	Description    string        `bson:"description"`
	Recommendation string        `bson:"recommendation"`
	Yield          string        `bson:"yield"`
	ActiveTime     string        `bson:"active_time"`
	TotalTime      string        `bson:"total_time"`
	ImageURL       string        `bson:"image_url"`
	Method         string        `bson:"method"`
	CreatedBy      string        `bson:"created_by"`
	DateCreated    docTime       `bson:"date_created"`
	UpdatedAt      time.Time     `bson:"updated_at"`

	LegacyMeal     string `bson:"meal_name,omitempty"`
	LegacyName     string `bson:"recipe_name,omitempty"`
	LegacyImageURL string `bson:"img_url,omitempty"`
}

func newRecipeDoc(r *database.Recipe) recipeDoc {
	return recipeDoc{
		Meal:           string(r.Meal),
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
		DateCreated:    docTime(r.CreatedAt),
		UpdatedAt:      r.UpdatedAt,
	}
}

func (d *recipeDoc) toModel() database.Recipe {
	d.normalize()
	return database.Recipe{
		ID:             d.ID.Hex(),
		CreatedAt:      time.Time(d.DateCreated),
		UpdatedAt:      d.UpdatedAt,
		Meal:           database.MealType(d.Meal),
		Name:           d.Name,
		Ingredients:    d.Ingredients,
		Description:    d.Description,
		Recommendation: d.Recommendation,
		Yield:          d.Yield,
		ActiveTime:     d.ActiveTime,
		TotalTime:      d.TotalTime,
		ImageURL:       d.ImageURL,
		Method:         d.Method,
		CreatedBy:      d.CreatedBy,
	}
}

// savedDoc is a recipe snapshot embedded in a user document.
type savedDoc struct {
	RecipeID       string    `bson:"recipe_id"`
	SavedAt        time.Time `bson:"saved_at"`
	Meal           string    `bson:"meal"`
	Name           string    `bson:"name"`
	Ingredients    string    `bson:"ingredients"`
	Description    string    `bson:"description"`
	Recommendation string    `bson:"recommendation"`
	Yield          string    `bson:"yield"`
	ActiveTime     string    `bson:"active_time"`
	TotalTime      string    `bson:"total_time"`
	ImageURL       string    `bson:"image_url"`
	Method         string    `bson:"method"`
	CreatedBy      string    `bson:"created_by"`
	DateCreated    docTime   `bson:"date_created"`

	// older entries are full copies of the recipe document
	LegacyID       bson.ObjectID `bson:"_id,omitempty"`
	LegacyMeal     string        `bson:"meal_name,omitempty"`
	LegacyName     string        `bson:"recipe_name,omitempty"`
	LegacyImageURL string        `bson:"img_url,omitempty"`
}

func newSavedDoc(recipeID string, snap database.RecipeSnapshot, savedAt time.Time) savedDoc {
	return savedDoc{
		RecipeID:       recipeID,
		SavedAt:        savedAt,
		Meal:           string(snap.Meal),
		Name:           snap.Name,
		Ingredients:    snap.Ingredients,
		Description:    snap.Description,
		Recommendation: snap.Recommendation,
		Yield:          snap.Yield,
		ActiveTime:     snap.ActiveTime,
		TotalTime:      snap.TotalTime,
		ImageURL:       snap.ImageURL,
		Method:         snap.Method,
		CreatedBy:      snap.CreatedBy,
		DateCreated:    docTime(snap.DateCreated),
	}
}

func (d *savedDoc) toModel(id uint) database.SavedRecipe {
	d.normalize()
	return database.SavedRecipe{
		ID:       id,
		SavedAt:  d.SavedAt,
		RecipeID: d.RecipeID,
		Recipe: database.RecipeSnapshot{
			Meal:           database.MealType(d.Meal),
			Name:           d.Name,
			Ingredients:    d.Ingredients,
			Description:    d.Description,
			Recommendation: d.Recommendation,
			Yield:          d.Yield,
			ActiveTime:     d.ActiveTime,
			TotalTime:      d.TotalTime,
			ImageURL:       d.ImageURL,
			Method:         d.Method,
			CreatedBy:      d.CreatedBy,
			DateCreated:    time.Time(d.DateCreated),
		},
	}
}

type subscriberDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	CreatedAt time.Time     `bson:"created_at"`

	LegacyEmail string `bson:"subscriber_email,omitempty"`
}
