package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/cache"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/mealshare/mealshare/internal/database/mock"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Listen:        "127.0.0.1:0",
		ServerURL:     "http://example.com",
		SessionKey:    "test-session-key-0123456789abcdef",
		SessionMaxAge: 7200,
		Admins:        []string{"admin"},
		Cache:         &config.CacheConfig{Type: config.CacheTypeMemory, TTL: 60},
		Email:         &config.EmailConfig{},
		Newsletter:    &config.NewsletterConfig{},
		Defaults: &config.DefaultsConfig{
			RecipeImage:    "/static/images/default-recipe-image.svg",
			ProfileImage:   "/static/images/default-profile-picture.svg",
			Recommendation: "No recommendations yet, be the first to try it!",
		},
	}
}

// browser keeps the cookies of one visitor between requests.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func (b *browser) do(method, path string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	b.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

type ServerTestSuite struct {
	suite.Suite
	db     *mock.MockDB
	engine *engine.Engine
	server *Server
	ctx    context.Context
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.ctx = context.Background()
	s.db = mock.NewMockDB()

	cfg := testConfig()
	e, err := engine.New(cfg, s.db,
		engine.WithPasswordCost(bcrypt.MinCost),
		engine.WithRecipeCache(cache.NewRecipeCache(cfg.Cache)),
	)
	s.Require().NoError(err)
	s.engine = e

	srv, err := New(cfg, e)
	s.Require().NoError(err)
	s.server = srv
}

func (s *ServerTestSuite) TearDownTest() {
	s.NoError(s.engine.Close())
}

func (s *ServerTestSuite) newBrowser() *browser {
	return &browser{t: s.T(), handler: s.server.Handler(), cookies: map[string]*http.Cookie{}}
}

func (s *ServerTestSuite) registered(username, email string) *browser {
	b := s.newBrowser()
	w := b.post("/register", url.Values{
		"username": {username},
		"email":    {email},
		"password": {"pw-" + strings.ToLower(username)},
	})
	s.Require().Equal(http.StatusFound, w.Code)
	s.Require().Equal("/profile/"+strings.ToLower(username), w.Header().Get("Location"))
	return b
}

var (
	actionLink = regexp.MustCompile(`href="([^"?]+\?token=[^"]+)"`)
	tokenField = regexp.MustCompile(`name="token" value="([^"]+)"`)
)

// confirm opens the confirmation page of a state changing link and follows
// the link it offers.
func (s *ServerTestSuite) confirm(b *browser, path string) *httptest.ResponseRecorder {
	w := b.get(path)
	s.Require().Equal(http.StatusOK, w.Code)
	m := actionLink.FindStringSubmatch(w.Body.String())
	s.Require().NotNil(m, "confirmation page offers a link")
	s.Require().True(strings.HasPrefix(m[1], path+"?token="))
	return b.get(m[1])
}

func (s *ServerTestSuite) addRecipe(b *browser, name, meal string) database.Recipe {
	w := b.post("/add-recipe", url.Values{
		"meal_name":   {meal},
		"recipe_name": {name},
		"description": {"tasty " + strings.ToLower(name)},
		"active_time": {"10 mins"},
	})
	s.Require().Equal(http.StatusFound, w.Code)
	s.Require().Equal("/recipes", w.Header().Get("Location"))

	recipes, err := s.db.GetRecipes(s.ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(recipes)
	return recipes[0]
}

func (s *ServerTestSuite) TestHome() {
	w := s.newBrowser().get("/")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/html")
	s.Contains(w.Body.String(), `href="/login"`)
}

func (s *ServerTestSuite) TestStaticAssets() {
	w := s.newBrowser().get("/static/css/style.css")
	s.Equal(http.StatusOK, w.Code)
}

func (s *ServerTestSuite) TestNotFoundPage() {
	w := s.newBrowser().get("/does-not-exist")
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "404")
}

func (s *ServerTestSuite) TestPanicRendersErrorPage() {
	s.server.ginEngine.GET("/boom", func(*gin.Context) { panic("boom") })
	w := s.newBrowser().get("/boom")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), "500")
}

func (s *ServerTestSuite) TestProtectedRouteRedirectsToLogin() {
	b := s.newBrowser()
	w := b.get("/saved-recipes")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/login", w.Header().Get("Location"))

	w = b.get("/login")
	s.Contains(w.Body.String(), "Please log in to view this page")
}

func (s *ServerTestSuite) TestRegister() {
	b := s.registered("Alice", "a@x.com")

	w := b.get("/profile/alice")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Welcome! Thank you for signing up!")
	s.Contains(w.Body.String(), `href="/logout"`)

	// case-folded collision
	other := s.newBrowser()
	w = other.post("/register", url.Values{"username": {"ALICE"}, "email": {"b@y.com"}, "password": {"pw2"}})
	s.Equal("/register", w.Header().Get("Location"))
	s.Contains(other.get("/register").Body.String(), "Sorry, this username is already in use")

	w = other.post("/register", url.Values{"username": {"carol"}, "email": {"A@X.com"}, "password": {"pw3"}})
	s.Equal("/register", w.Header().Get("Location"))
	s.Contains(other.get("/register").Body.String(), "Sorry, this email is already in use")

	w = other.post("/register", url.Values{"username": {"dave"}, "email": {"d@x.com"}})
	s.Equal("/register", w.Header().Get("Location"))
	s.Contains(other.get("/register").Body.String(), "Password is required")
}

func (s *ServerTestSuite) TestLogin() {
	s.registered("alice", "a@x.com").get("/logout")

	b := s.newBrowser()
	w := b.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	s.Equal("/login", w.Header().Get("Location"))
	s.Contains(b.get("/login").Body.String(), "Incorrect Username and/or Password")
	s.Equal("/login", b.get("/saved-recipes").Header().Get("Location"), "no session after a failed login")

	w = b.post("/login", url.Values{"username": {"Alice"}, "password": {"pw-alice"}})
	s.Equal("/profile/alice", w.Header().Get("Location"))
	s.Equal(http.StatusOK, b.get("/saved-recipes").Code)

	// logged in users skip the login page
	s.Equal("/profile/alice", b.get("/login").Header().Get("Location"))
}

func (s *ServerTestSuite) TestLogout() {
	b := s.registered("alice", "a@x.com")
	w := b.get("/logout")
	s.Equal("/login", w.Header().Get("Location"))
	s.Contains(b.get("/login").Body.String(), "Goodbye! You have been logged out")
	s.Equal("/login", b.get("/saved-recipes").Header().Get("Location"))
}

func (s *ServerTestSuite) TestRecipeVisibility() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")
	oats := s.addRecipe(alice, "Oats", "Breakfast")

	s.Equal("alice", oats.CreatedBy)
	s.Equal("10 Minutes", oats.ActiveTime)

	w := s.newBrowser().get("/recipes/breakfast")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Oats")

	s.Contains(alice.get("/profile/alice").Body.String(), "Oats")
	s.NotContains(bob.get("/profile/bob").Body.String(), "Oats")

	s.Equal(http.StatusNotFound, s.newBrowser().get("/recipes/brunch").Code)
}

func (s *ServerTestSuite) TestRecipePage() {
	alice := s.registered("alice", "a@x.com")
	recipe := s.addRecipe(alice, "Pancakes", "Breakfast")

	w := s.newBrowser().get("/recipe/" + recipe.ID)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Pancakes")
	s.Contains(w.Body.String(), "No recommendations yet, be the first to try it!")

	s.Equal(http.StatusNotFound, s.newBrowser().get("/recipe/unknown").Code)
}

func (s *ServerTestSuite) TestEditRecipe() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")
	recipe := s.addRecipe(alice, "Soup", "Lunch")

	w := bob.get("/edit-recipe/" + recipe.ID)
	s.Equal("/recipe/"+recipe.ID, w.Header().Get("Location"))

	w = bob.post("/edit-recipe/"+recipe.ID, url.Values{"meal_name": {"Dinner"}, "recipe_name": {"Stolen"}})
	s.Equal("/edit-recipe/"+recipe.ID, w.Header().Get("Location"))

	s.Equal(http.StatusOK, alice.get("/edit-recipe/"+recipe.ID).Code)
	w = alice.post("/edit-recipe/"+recipe.ID, url.Values{"meal_name": {"Dinner"}, "recipe_name": {"Better Soup"}})
	s.Equal("/recipe/"+recipe.ID, w.Header().Get("Location"))

	updated, err := s.db.GetRecipeByID(s.ctx, recipe.ID)
	s.Require().NoError(err)
	s.Equal("Better Soup", updated.Name)
	s.Equal(database.MealTypeDinner, updated.Meal)
	s.Equal("alice", updated.CreatedBy)

	// the meal listings reflect the edit
	s.NotContains(s.newBrowser().get("/recipes/lunch").Body.String(), "Better Soup")
	s.Contains(s.newBrowser().get("/recipes/dinner").Body.String(), "Better Soup")
}

func (s *ServerTestSuite) TestDeleteRecipe() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")
	admin := s.registered("admin", "admin@x.com")
	first := s.addRecipe(alice, "Cake", "Desserts")

	w := s.confirm(bob, "/delete-recipe/"+first.ID)
	s.Equal("/recipes", w.Header().Get("Location"))
	_, err := s.db.GetRecipeByID(s.ctx, first.ID)
	s.NoError(err, "recipe survives a delete by someone else")

	w = s.confirm(alice, "/delete-recipe/"+first.ID)
	s.Equal("/recipes", w.Header().Get("Location"))
	_, err = s.db.GetRecipeByID(s.ctx, first.ID)
	s.ErrorIs(err, database.ErrNotFound)

	second := s.addRecipe(alice, "Pie", "Desserts")
	s.confirm(admin, "/delete-recipe/"+second.ID)
	_, err = s.db.GetRecipeByID(s.ctx, second.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *ServerTestSuite) TestSaveRecipe() {
	alice := s.registered("alice", "a@x.com")
	recipe := s.addRecipe(alice, "Oats", "Breakfast")

	w := alice.post("/save-recipe/"+recipe.ID, nil)
	s.Equal("/saved-recipes", w.Header().Get("Location"))
	s.Contains(alice.get("/saved-recipes").Body.String(), "Oats")

	w = alice.post("/save-recipe/"+recipe.ID, nil)
	s.Equal("/recipes", w.Header().Get("Location"))
	s.Contains(alice.get("/recipes").Body.String(), "Recipe already saved!")

	saved, err := s.db.GetSavedRecipes(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(saved, 1)

	s.Equal(http.StatusNotFound, alice.post("/save-recipe/unknown", nil).Code)
}

func (s *ServerTestSuite) TestRemoveSavedRecipe() {
	alice := s.registered("alice", "a@x.com")
	recipe := s.addRecipe(alice, "Oats", "Breakfast")
	alice.post("/save-recipe/"+recipe.ID, nil)

	w := alice.post("/remove-saved-recipe/absent", nil)
	s.Equal("/saved-recipes", w.Header().Get("Location"))

	alice.post("/remove-saved-recipe/"+recipe.ID, nil)
	saved, err := s.db.GetSavedRecipes(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(saved)
}

func (s *ServerTestSuite) TestSearch() {
	alice := s.registered("alice", "a@x.com")
	s.addRecipe(alice, "Oats", "Breakfast")

	b := s.newBrowser()
	w := b.post("/recipes", url.Values{"search-query": {"zzz"}})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Sorry! No results found")

	w = b.post("/recipes", url.Values{"search-query": {"oats"}})
	s.Contains(w.Body.String(), "Oats")
	s.NotContains(w.Body.String(), "No results found")

	w = b.get("/recipes?search-query=OATS")
	s.Contains(w.Body.String(), "Oats")

	w = b.post("/recipes", url.Values{"search-query": {"  "}})
	s.Contains(w.Body.String(), "All recipes")
	s.Contains(w.Body.String(), "Oats")
}

func (s *ServerTestSuite) TestDeleteAccount() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")
	s.addRecipe(alice, "Oats", "Breakfast")
	kept := s.addRecipe(bob, "Toast", "Breakfast")

	w := s.confirm(bob, "/delete-account/alice")
	s.Equal("/profile/alice", w.Header().Get("Location"))
	s.True(s.userExists("alice"))

	w = s.confirm(alice, "/delete-account/alice")
	s.Equal("/login", w.Header().Get("Location"))
	s.Contains(alice.get("/login").Body.String(), "Sorry to see you go!")
	s.Equal("/login", alice.get("/saved-recipes").Header().Get("Location"))

	s.False(s.userExists("alice"))
	recipes, err := s.db.GetRecipesByCreator(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(recipes)
	_, err = s.db.GetRecipeByID(s.ctx, kept.ID)
	s.NoError(err)
}

func (s *ServerTestSuite) TestDeleteRequiresToken() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")
	recipe := s.addRecipe(alice, "Cake", "Desserts")
	bobToken := actionLink.FindStringSubmatch(bob.get("/delete-account/bob").Body.String())
	s.Require().NotNil(bobToken)
	_, foreign, _ := strings.Cut(bobToken[1], "?token=")

	attempts := []struct {
		name    string
		path    string
		headers []string
	}{
		{"no token", "/delete-recipe/" + recipe.ID, nil},
		{"cross-site referer", "/delete-recipe/" + recipe.ID, []string{"Referer", "https://evil.example/page"}},
		{"token of another session", "/delete-recipe/" + recipe.ID + "?token=" + foreign, nil},
		{"forged token", "/delete-recipe/" + recipe.ID + "?token=00000000-0000-0000-0000-000000000000", nil},
		{"account without token", "/delete-account/alice", []string{"Referer", "https://evil.example/page"}},
	}
	for _, tt := range attempts {
		w := alice.do(http.MethodGet, tt.path, nil, tt.headers...)
		s.Equal(http.StatusOK, w.Code, tt.name)
		s.Contains(w.Body.String(), "Are you sure?", tt.name)
	}

	_, err := s.db.GetRecipeByID(s.ctx, recipe.ID)
	s.NoError(err)
	s.True(s.userExists("alice"))

	// the links on the recipe page carry the token and work directly
	m := actionLink.FindStringSubmatch(alice.get("/recipe/" + recipe.ID).Body.String())
	s.Require().NotNil(m)
	s.True(strings.HasPrefix(m[1], "/delete-recipe/"+recipe.ID+"?token="))
	s.Equal("/recipes", alice.get(m[1]).Header().Get("Location"))
	_, err = s.db.GetRecipeByID(s.ctx, recipe.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *ServerTestSuite) userExists(username string) bool {
	exists, err := s.db.UsernameExists(s.ctx, username)
	s.Require().NoError(err)
	return exists
}

func (s *ServerTestSuite) TestUpdatePassword() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")

	s.Equal("/profile/alice", bob.get("/update-password/alice").Header().Get("Location"))
	s.Equal(http.StatusOK, alice.get("/update-password/alice").Code)
	s.Equal(http.StatusOK, alice.get("/update-user/alice").Code)

	w := alice.post("/update-password/alice", url.Values{"password": {"wrong"}, "new-password": {"n"}, "confirm-password": {"n"}})
	s.Equal("/update-password/alice", w.Header().Get("Location"))
	s.Contains(alice.get("/update-password/alice").Body.String(), "Incorrect password")

	w = alice.post("/update-password/alice", url.Values{"password": {"pw-alice"}, "new-password": {"n1"}, "confirm-password": {"n2"}})
	s.Equal("/update-password/alice", w.Header().Get("Location"))
	s.Contains(alice.get("/update-password/alice").Body.String(), "Passwords do not match!")

	w = alice.post("/update-user/alice", url.Values{"password": {"pw-alice"}, "new-password": {"n1"}, "confirm-password": {"n1"}})
	s.Equal("/profile/alice", w.Header().Get("Location"))

	_, err := s.engine.Login(s.ctx, "alice", "n1")
	s.NoError(err)
}

func (s *ServerTestSuite) TestUpdateProfilePicture() {
	alice := s.registered("alice", "a@x.com")
	bob := s.registered("bob", "b@x.com")

	s.Equal("/profile/alice", bob.get("/update-profile-pic/alice").Header().Get("Location"))
	s.Equal(http.StatusOK, alice.get("/update-profile-pic/alice").Code)

	w := alice.post("/update-profile-pic/alice", url.Values{"profile_img": {"https://img.example.com/me.png"}})
	s.Equal("/profile/alice", w.Header().Get("Location"))
	user, err := s.db.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("https://img.example.com/me.png", user.ProfileImage)

	w = alice.post("/update-profile-pic/alice", url.Values{"profile_img": {"not a url"}})
	s.Equal("/update-profile-pic/alice", w.Header().Get("Location"))

	bob.post("/update-profile-pic/alice", url.Values{"profile_img": {"https://evil.example.com/x.png"}})
	user, err = s.db.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("https://img.example.com/me.png", user.ProfileImage)
}

func (s *ServerTestSuite) TestSubscribe() {
	b := s.newBrowser()
	w := b.do(http.MethodPost, "/subscribe", url.Values{"sub_email": {"News@X.com"}}, "Referer", "http://example.com/recipes")
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/recipes#message", w.Header().Get("Location"))
	s.Contains(b.get("/recipes").Body.String(), "Thank you for subscribing!")

	w = b.do(http.MethodPost, "/subscribe", url.Values{"sub_email": {"news@x.com"}}, "Referer", "http://evil.example.org/phish")
	s.Equal("/#message", w.Header().Get("Location"))
	s.Contains(b.get("/").Body.String(), "You are already subscribed!")

	subscribers, err := s.db.GetSubscribers(s.ctx)
	s.Require().NoError(err)
	s.Len(subscribers, 1)

	w = b.do(http.MethodPost, "/subscribe", url.Values{"sub_email": {"not-an-email"}})
	s.Equal("/#message", w.Header().Get("Location"))
}

func (s *ServerTestSuite) TestServerError() {
	s.db.GetRecipesError = errors.New("database down")
	w := s.newBrowser().get("/recipes")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), "500")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
