package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/auth"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/web/templates/pages"
)

// searchField is the form field of the search box.
const searchField = "search-query"

// noResults is shown when a search matches nothing.
const noResults = "Sorry! No results found 😔"

// Recipes lists all recipes. With a search query, given as form value or URL
// parameter, it lists the matching recipes instead.
func (h *Handler) Recipes(c *gin.Context) {
	query, searching := c.GetPostForm(searchField)
	if !searching {
		query, searching = c.GetQuery(searchField)
	}
	query = strings.TrimSpace(query)

	if !searching || query == "" {
		recipes, err := h.engine.ListRecipes(c.Request.Context())
		if err != nil {
			h.fail(c, err, "/")
			return
		}
		h.render(c, http.StatusOK, pages.Recipes(h.layout(c), "All recipes", "", models.ToRecipes(recipes, auth.CurrentUser(c))))
		return
	}

	recipes, err := h.engine.Search(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err, "/recipes")
		return
	}

	l := h.layout(c)
	if len(recipes) == 0 {
		l.Flashes = append(l.Flashes, noResults)
	}
	h.render(c, http.StatusOK, pages.Recipes(l, "Results for \""+query+"\"", query, models.ToRecipes(recipes, auth.CurrentUser(c))))
}

func (h *Handler) Meal(c *gin.Context) {
	meal, recipes, err := h.engine.ListRecipesByMeal(c.Request.Context(), c.Param("meal"))
	if err != nil {
		h.fail(c, err, "/recipes")
		return
	}
	h.render(c, http.StatusOK, pages.Recipes(h.layout(c), string(meal), "", models.ToRecipes(recipes, auth.CurrentUser(c))))
}

func (h *Handler) Recipe(c *gin.Context) {
	recipe, err := h.engine.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "/recipes")
		return
	}
	h.render(c, http.StatusOK, pages.Recipe(h.layout(c), models.ToRecipe(*recipe, auth.CurrentUser(c))))
}

func recipeInput(c *gin.Context) engine.RecipeInput {
	return engine.RecipeInput{
		Meal:           c.PostForm("meal_name"),
		Name:           c.PostForm("recipe_name"),
		Ingredients:    c.PostForm("ingredients"),
		Description:    c.PostForm("description"),
		Recommendation: c.PostForm("recos"),
		Yield:          c.PostForm("yield"),
		ActiveTime:     c.PostForm("active_time"),
		TotalTime:      c.PostForm("total_time"),
		ImageURL:       c.PostForm("img_url"),
		Method:         c.PostForm("method"),
	}
}

func (h *Handler) AddRecipePage(c *gin.Context) {
	h.render(c, http.StatusOK, pages.RecipeForm(h.layout(c), models.RecipeForm{
		Title:  "Add a recipe",
		Action: "/add-recipe",
		Submit: "Add recipe",
		Meals:  models.Meals(),
	}))
}

func (h *Handler) AddRecipe(c *gin.Context) {
	actor := models.ToActor(auth.CurrentUser(c))
	if _, err := h.engine.CreateRecipe(c.Request.Context(), actor, recipeInput(c)); err != nil {
		h.fail(c, err, "/add-recipe")
		return
	}
	h.redirect(c, "/recipes", "Recipe Successfully Added")
}

func (h *Handler) EditRecipePage(c *gin.Context) {
	id := c.Param("id")
	user := auth.CurrentUser(c)
	recipe, err := h.engine.EditableRecipe(c.Request.Context(), models.ToActor(user), id)
	if err != nil {
		h.fail(c, err, "/recipe/"+id)
		return
	}
	h.render(c, http.StatusOK, pages.RecipeForm(h.layout(c), models.RecipeForm{
		Title:  "Edit recipe",
		Action: "/edit-recipe/" + id,
		Submit: "Update recipe",
		Meals:  models.Meals(),
		Recipe: models.ToRecipe(*recipe, user),
	}))
}

func (h *Handler) EditRecipe(c *gin.Context) {
	id := c.Param("id")
	actor := models.ToActor(auth.CurrentUser(c))
	if _, err := h.engine.UpdateRecipe(c.Request.Context(), actor, id, recipeInput(c)); err != nil {
		h.fail(c, err, "/edit-recipe/"+id)
		return
	}
	h.redirect(c, "/recipe/"+id, "Recipe Updated 😊")
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	id := c.Param("id")
	if !h.confirmed(c, "Delete this recipe?", "/delete-recipe/"+url.PathEscape(id), "/recipe/"+url.PathEscape(id)) {
		return
	}
	actor := models.ToActor(auth.CurrentUser(c))
	if err := h.engine.DeleteRecipe(c.Request.Context(), actor, id); err != nil {
		h.fail(c, err, "/recipes")
		return
	}
	h.redirect(c, "/recipes", "Recipe Successfully Removed!")
}

func (h *Handler) SavedRecipes(c *gin.Context) {
	saved, err := h.engine.SavedRecipes(c.Request.Context(), models.ToActor(auth.CurrentUser(c)))
	if err != nil {
		h.fail(c, err, "/")
		return
	}
	h.render(c, http.StatusOK, pages.SavedRecipes(h.layout(c), models.ToSavedRecipes(saved)))
}

func (h *Handler) SaveRecipe(c *gin.Context) {
	actor := models.ToActor(auth.CurrentUser(c))
	if err := h.engine.SaveRecipe(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err, "/recipes")
		return
	}
	h.redirect(c, "/saved-recipes", "Recipe Saved 😊")
}

func (h *Handler) RemoveSavedRecipe(c *gin.Context) {
	actor := models.ToActor(auth.CurrentUser(c))
	if err := h.engine.RemoveSavedRecipe(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err, "/saved-recipes")
		return
	}
	h.redirect(c, "/saved-recipes", "Recipe removed from saved")
}
