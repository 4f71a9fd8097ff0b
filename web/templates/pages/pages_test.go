package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayout_Navigation(t *testing.T) {
	anonymous := renderString(t, Home(Layout{}, nil))
	assert.Contains(t, anonymous, `href="/login"`)
	assert.Contains(t, anonymous, `href="/recipes/breakfast"`)
	assert.NotContains(t, anonymous, `href="/logout"`)

	loggedIn := renderString(t, Home(Layout{User: &models.User{Username: "alice"}}, nil))
	assert.Contains(t, loggedIn, `href="/profile/alice"`)
	assert.Contains(t, loggedIn, `href="/logout"`)
	assert.NotContains(t, loggedIn, `href="/login"`)
}

func TestLayout_Flashes(t *testing.T) {
	out := renderString(t, Login(Layout{Flashes: []string{"Incorrect Username and/or Password"}}))
	assert.Contains(t, out, "Incorrect Username and/or Password")
	assert.Contains(t, out, `id="message"`)
}

func TestRecipe_EscapesUserContent(t *testing.T) {
	out := renderString(t, Recipe(Layout{}, models.Recipe{
		ID:          "r1",
		Name:        "<script>alert(1)</script>",
		Ingredients: "2 eggs\nflour",
	}))
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "<li>2 eggs</li>")
	assert.Contains(t, out, "<li>flour</li>")
}

func TestRecipe_EditLinksOnlyWhenEditable(t *testing.T) {
	user := &models.User{Username: "bob"}
	out := renderString(t, Recipe(Layout{User: user}, models.Recipe{ID: "r1", Name: "Soup"}))
	assert.Contains(t, out, `action="/save-recipe/r1"`)
	assert.NotContains(t, out, `href="/edit-recipe/r1"`)

	out = renderString(t, Recipe(Layout{User: user, Token: "tok"}, models.Recipe{ID: "r1", Name: "Soup", CanEdit: true}))
	assert.Contains(t, out, `href="/edit-recipe/r1"`)
	assert.Contains(t, out, `href="/delete-recipe/r1?token=tok"`)
}

func TestRecipeCard_Image(t *testing.T) {
	recipes := []models.Recipe{{
		ID:           "r1",
		Name:         "Soup",
		ImageURL:     "https://example.com/soup.jpg",
		ThumbnailURL: "/images/recipe/r1",
	}}

	out := renderString(t, Recipes(Layout{}, "All recipes", "", recipes))
	assert.Contains(t, out, `src="https://example.com/soup.jpg"`)
	assert.NotContains(t, out, `src="/images/recipe/r1"`)

	out = renderString(t, Recipes(Layout{Thumbnails: true}, "All recipes", "", recipes))
	assert.Contains(t, out, `src="/images/recipe/r1"`)
}

func TestRecipeCard_DeleteLinkCarriesToken(t *testing.T) {
	out := renderString(t, Home(Layout{Token: "a b"}, []models.Recipe{{ID: "r/1", Name: "Soup", CanEdit: true}}))
	assert.Contains(t, out, `href="/delete-recipe/r%2F1?token=a+b"`)
}

func TestRecipes_Empty(t *testing.T) {
	out := renderString(t, Recipes(Layout{}, "Dinner", "", nil))
	assert.Contains(t, out, "No recipes here yet.")
}

func TestRecipes_Count(t *testing.T) {
	out := renderString(t, Recipes(Layout{}, "All recipes", "cake", []models.Recipe{{ID: "a", Name: "Cake"}}))
	assert.Contains(t, out, "1 recipe")
	assert.Contains(t, out, `value="cake"`)
}

func TestRecipeForm_SelectsCurrentMeal(t *testing.T) {
	out := renderString(t, RecipeForm(Layout{}, models.RecipeForm{
		Title:  "Edit recipe",
		Action: "/edit-recipe/r1",
		Submit: "Update",
		Meals:  models.Meals(),
		Recipe: models.Recipe{Meal: "Lunch", Name: "Salad"},
	}))
	assert.Contains(t, out, `<option value="Lunch" selected>`)
	assert.Contains(t, out, `action="/edit-recipe/r1"`)
}

func TestProfile_AccountLinks(t *testing.T) {
	profile := models.Profile{Username: "alice", Email: "a@x.com", DateJoined: "01/02/2024", Editable: true, Self: true}
	out := renderString(t, Profile(Layout{Token: "tok"}, profile))
	assert.Contains(t, out, "Member since 01/02/2024")
	assert.Contains(t, out, `href="/update-password/alice"`)
	assert.Contains(t, out, `href="/delete-account/alice?token=tok"`)

	profile.Editable, profile.Self = false, false
	out = renderString(t, Profile(Layout{Token: "tok"}, profile))
	assert.NotContains(t, out, `href="/delete-account/alice`)
	assert.NotContains(t, out, "a@x.com")
}

func TestErrorPages(t *testing.T) {
	assert.Contains(t, renderString(t, NotFound(Layout{})), "404")
	assert.Contains(t, renderString(t, InternalServerError(Layout{})), "500")
}

func TestConfirm(t *testing.T) {
	out := renderString(t, Confirm(Layout{}, "Delete this <recipe>?", "/delete-recipe/r1?token=tok", "/recipe/r1"))
	assert.Contains(t, out, "Are you sure?")
	assert.Contains(t, out, "Delete this &lt;recipe&gt;?")
	assert.Contains(t, out, `href="/delete-recipe/r1?token=tok"`)
	assert.Contains(t, out, `href="/recipe/r1"`)
}

func TestSchedulerPanel(t *testing.T) {
	l := Layout{User: &models.User{Username: "admin", IsAdmin: true}, Token: "tok", Flashes: []string{"Recipe Cache Purge started"}}
	out := renderString(t, SchedulerPanel(l, []models.Job{{
		ID:        "cache_purge",
		Name:      "Recipe Cache Purge",
		Schedule:  "0 * * * *",
		Status:    "failed",
		LastRun:   "never",
		RunCount:  "1,024",
		LastError: "boom",
	}}))
	assert.Contains(t, out, "Recipe Cache Purge started")
	assert.Contains(t, out, `action="/admin/jobs/cache_purge/run"`)
	assert.Contains(t, out, `<input type="hidden" name="token" value="tok">`)
	assert.Contains(t, out, "1,024")
	assert.Contains(t, out, `title="boom"`)
	assert.Contains(t, out, `href="/admin/jobs"`)

	assert.Contains(t, renderString(t, SchedulerPanel(l, nil)), "No jobs are scheduled.")
}

func TestLayout_AdminLinkOnlyForAdmins(t *testing.T) {
	out := renderString(t, Home(Layout{User: &models.User{Username: "alice"}}, nil))
	assert.NotContains(t, out, `href="/admin/jobs"`)
}

func TestAllPagesRender(t *testing.T) {
	l := Layout{User: &models.User{Username: "alice"}}
	for name, c := range map[string]templ.Component{
		"register":   Register(l),
		"saved":      SavedRecipes(l, []models.SavedRecipe{{Recipe: models.Recipe{ID: "x", Name: "Pie"}}}),
		"password":   UpdatePassword(l, "alice"),
		"profilePic": UpdateProfilePicture(l, "alice", "/static/images/default-profile-picture.svg"),
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, renderString(t, c))
		})
	}
}
