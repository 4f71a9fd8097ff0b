package models

import (
	"github.com/mealshare/mealshare/internal/database"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/internal/scheduler"
	"github.com/mealshare/mealshare/web/templates/components"
)

// ToActor converts the session user into the engine actor. A nil user is an
// anonymous visitor.
func ToActor(u *User) engine.Actor {
	if u == nil {
		return engine.Actor{}
	}
	return engine.Actor{Username: u.Username, Admin: u.IsAdmin}
}

// FromActor converts an engine actor into the session user.
func FromActor(a engine.Actor) *User {
	return &User{Username: a.Username, IsAdmin: a.Admin}
}

// Meals returns all recipe categories in display order.
func Meals() []Meal {
	meals := make([]Meal, len(database.MealTypes))
	for i, m := range database.MealTypes {
		meals[i] = ToMeal(m)
	}
	return meals
}

// ToMeal converts a database.MealType to a Meal.
func ToMeal(m database.MealType) Meal {
	return Meal{Name: string(m), Slug: m.Slug()}
}

// ToRecipe converts a database.Recipe to a Recipe as seen by viewer.
func ToRecipe(r database.Recipe, viewer *User) Recipe {
	return Recipe{
		ID:             r.ID,
		Meal:           string(r.Meal),
		MealSlug:       r.Meal.Slug(),
		Name:           r.Name,
		Ingredients:    r.Ingredients,
		Description:    r.Description,
		Recommendation: r.Recommendation,
		Yield:          r.Yield,
		ActiveTime:     r.ActiveTime,
		TotalTime:      r.TotalTime,
		ImageURL:       r.ImageURL,
		ThumbnailURL:   "/images/recipe/" + r.ID,
		Method:         r.Method,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		DateCreated:    components.FormatDate(r.CreatedAt),
		CanEdit:        ToActor(viewer).CanModify(r.CreatedBy),
	}
}

// ToRecipes converts a slice of database.Recipe to Recipes.
func ToRecipes(recipes []database.Recipe, viewer *User) []Recipe {
	result := make([]Recipe, len(recipes))
	for i, r := range recipes {
		result[i] = ToRecipe(r, viewer)
	}
	return result
}

// ToSavedRecipes converts saved snapshots for the saved recipes page.
// Snapshots are never editable from there.
func ToSavedRecipes(saved []database.SavedRecipe) []SavedRecipe {
	result := make([]SavedRecipe, len(saved))
	for i, s := range saved {
		snap := s.Recipe
		result[i] = SavedRecipe{
			SavedAt: s.SavedAt,
			Recipe: Recipe{
				ID:             s.RecipeID,
				Meal:           string(snap.Meal),
				MealSlug:       snap.Meal.Slug(),
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
				CreatedAt:      snap.DateCreated,
				DateCreated:    components.FormatDate(snap.DateCreated),
			},
		}
	}
	return result
}

// ToProfile converts an engine.Profile for the profile page.
func ToProfile(p *engine.Profile, viewer *User) Profile {
	return Profile{
		Username:     p.User.Username,
		Email:        p.User.Email,
		ProfileImage: p.User.ProfileImage,
		DateJoined:   components.FormatDate(p.User.JoinedAt()),
		Recipes:      ToRecipes(p.Recipes, viewer),
		Editable:     p.Editable,
		Self:         viewer != nil && viewer.Username == p.User.Username,
	}
}

// ToJobs converts scheduler jobs for the scheduler panel. Jobs that never ran
// show "never" as their last run.
func ToJobs(jobs []scheduler.JobInfo) []Job {
	result := make([]Job, len(jobs))
	for i, j := range jobs {
		result[i] = Job{
			ID:         j.ID,
			Name:       j.Name,
			Schedule:   j.Schedule,
			Status:     string(j.Status),
			LastRun:    "never",
			RunCount:   components.FormatCount(j.RunCount),
			ErrorCount: j.ErrorCount,
			LastError:  j.LastError,
		}
		if !j.LastRun.IsZero() {
			result[i].LastRun = components.FormatRelativeTime(j.LastRun)
		}
		if !j.NextRun.IsZero() {
			result[i].NextRun = j.NextRun.Format("02/01/2006 15:04")
		}
	}
	return result
}
