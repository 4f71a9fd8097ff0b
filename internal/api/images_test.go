package api

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"

	"github.com/mealshare/mealshare/internal/config"
)

func (s *ServerTestSuite) TestRecipeImageRedirectsWithoutCache() {
	b := s.registered("alice", "a@x.com")
	r := s.addRecipe(b, "Porridge", "Breakfast")

	w := b.get("/images/recipe/" + r.ID)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/static/images/default-recipe-image.svg", w.Header().Get("Location"))

	// without the cache, cards link the image itself
	s.Contains(b.get("/recipes").Body.String(), `src="/static/images/default-recipe-image.svg"`)
}

func (s *ServerTestSuite) TestRecipeImageNeverRedirectsOffSite() {
	b := s.registered("alice", "a@x.com")
	for _, src := range []string{
		"https://evil.example/phish",
		"//evil.example/phish",
		"/\\evil.example/phish",
		"javascript:alert(1)",
	} {
		w := b.post("/add-recipe", url.Values{
			"meal_name":   {"Lunch"},
			"recipe_name": {"Salad"},
			"img_url":     {src},
		})
		s.Require().Equal(http.StatusFound, w.Code)
	}
	recipes, err := s.db.GetRecipes(s.ctx)
	s.Require().NoError(err)

	for _, r := range recipes {
		w := b.get("/images/recipe/" + r.ID)
		s.Equal(http.StatusFound, w.Code, r.ImageURL)
		s.Equal("/static/images/default-recipe-image.svg", w.Header().Get("Location"), r.ImageURL)
	}
}

func (s *ServerTestSuite) TestRecipeImageUnknownRecipe() {
	w := s.newBrowser().get("/images/recipe/missing")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ServerTestSuite) TestRecipeImageServesThumbnail() {
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 800, 600))))
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	defer upstream.Close()

	b := s.registered("alice", "a@x.com")
	w := b.post("/add-recipe", url.Values{
		"meal_name":   {"Lunch"},
		"recipe_name": {"Salad"},
		"img_url":     {upstream.URL + "/salad.png"},
	})
	s.Require().Equal(http.StatusFound, w.Code)
	recipes, err := s.db.GetRecipes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recipes, 1)

	cfg := testConfig()
	cfg.Images = &config.ImagesConfig{
		Enabled:   true,
		CacheDir:  s.T().TempDir(),
		MaxWidth:  200,
		MaxHeight: 200,
		Quality:   80,
	}
	// the upstream test server listens on loopback
	cfg.Images.AllowPrivateNetworks = true
	srv, err := New(cfg, s.engine)
	s.Require().NoError(err)
	visitor := &browser{t: s.T(), handler: srv.Handler(), cookies: map[string]*http.Cookie{}}

	s.Contains(visitor.get("/recipes").Body.String(), `src="/images/recipe/`+recipes[0].ID+`"`)

	for range 2 {
		w = visitor.get("/images/recipe/" + recipes[0].ID)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal("image/png", w.Header().Get("Content-Type"))

		img, _, err := image.Decode(w.Body)
		s.Require().NoError(err)
		s.Equal(200, img.Bounds().Dx())
		s.Equal(150, img.Bounds().Dy())
	}
	s.Equal(int32(1), hits.Load())
}

func (s *ServerTestSuite) TestRecipeImageFallsBackWhenUnreachable() {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("not a png"))
	}))
	defer upstream.Close()

	b := s.registered("alice", "a@x.com")
	b.post("/add-recipe", url.Values{
		"meal_name":   {"Lunch"},
		"recipe_name": {"Salad"},
		"img_url":     {upstream.URL + "/salad.png"},
	})
	recipes, err := s.db.GetRecipes(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(recipes, 1)

	cfg := testConfig()
	// guarded downloads refuse the loopback upstream
	cfg.Images = &config.ImagesConfig{
		Enabled:   true,
		CacheDir:  s.T().TempDir(),
		MaxWidth:  200,
		MaxHeight: 200,
		Quality:   80,
	}
	srv, err := New(cfg, s.engine)
	s.Require().NoError(err)
	visitor := &browser{t: s.T(), handler: srv.Handler(), cookies: map[string]*http.Cookie{}}

	w := visitor.get("/images/recipe/" + recipes[0].ID)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/static/images/default-recipe-image.svg", w.Header().Get("Location"))
}
