package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/auth"
	"github.com/mealshare/mealshare/internal/api/handler"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/internal/images"
	"github.com/mealshare/mealshare/internal/static"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
	sessions  *auth.Sessions
	images    *images.Cache
}

func New(cfg *config.Config, e *engine.Engine) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if e == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		engine:    e,
		sessions:  auth.NewSessions(time.Duration(cfg.SessionMaxAge) * time.Second),
	}
	if err := s.setupImageCache(); err != nil {
		return nil, err
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// setupImageCache creates the thumbnail cache and schedules its cleanup.
func (s *Server) setupImageCache() error {
	if s.cfg.Images == nil || !s.cfg.Images.Enabled {
		return nil
	}

	c, err := images.New(s.cfg.Images)
	if err != nil {
		return err
	}
	s.images = c

	maxAge := s.cfg.Images.GetMaxAge()
	if err := s.engine.GetScheduler().AddIntervalJob("image_cache_cleanup", "Image Cache Cleanup", 6*time.Hour, func(context.Context) error {
		removed, err := c.Cleanup(maxAge)
		if removed > 0 {
			log.Info("Removed old cached images", "count", removed)
		}
		return err
	}); err != nil {
		return fmt.Errorf("failed to add image cache cleanup job: %w", err)
	}
	return nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(auth.SessionName, store))
}

func (s *Server) setupRoutes() error {
	h := handler.New(s.engine, s.cfg, s.sessions, s.images)

	s.ginEngine.Use(
		requestLogger(),
		gin.CustomRecovery(h.Recovery),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/images/"})),
	)

	assets, err := static.Assets()
	if err != nil {
		return fmt.Errorf("failed to load static assets: %w", err)
	}
	s.ginEngine.StaticFS("/static", http.FS(assets))

	s.setupSession()
	s.ginEngine.Use(s.sessions.LoadUser())
	s.ginEngine.NoRoute(h.NotFound)

	s.ginEngine.GET("/", h.Home)
	s.ginEngine.GET("/recipes", h.Recipes)
	s.ginEngine.POST("/recipes", h.Recipes)
	s.ginEngine.GET("/recipes/:meal", h.Meal)
	s.ginEngine.GET("/recipe/:id", h.Recipe)
	s.ginEngine.GET("/images/recipe/:id", h.RecipeImage)
	s.ginEngine.GET("/login", h.LoginPage)
	s.ginEngine.POST("/login", h.Login)
	s.ginEngine.GET("/register", h.RegisterPage)
	s.ginEngine.POST("/register", h.Register)
	s.ginEngine.POST("/subscribe", h.Subscribe)

	protected := s.ginEngine.Group("/")
	protected.Use(s.sessions.RequireAuth())

	protected.GET("/logout", h.Logout)
	protected.GET("/profile/:username", h.Profile)

	protected.GET("/add-recipe", h.AddRecipePage)
	protected.POST("/add-recipe", h.AddRecipe)
	protected.GET("/edit-recipe/:id", h.EditRecipePage)
	protected.POST("/edit-recipe/:id", h.EditRecipe)
	protected.GET("/delete-recipe/:id", h.DeleteRecipe)

	protected.GET("/saved-recipes", h.SavedRecipes)
	protected.POST("/save-recipe/:id", h.SaveRecipe)
	protected.POST("/remove-saved-recipe/:id", h.RemoveSavedRecipe)

	protected.GET("/delete-account/:username", h.DeleteAccount)
	for _, path := range []string{"/update-password/:username", "/update-user/:username"} {
		protected.GET(path, h.UpdatePasswordPage)
		protected.POST(path, h.UpdatePassword)
	}
	protected.GET("/update-profile-pic/:username", h.UpdateProfilePicPage)
	protected.POST("/update-profile-pic/:username", h.UpdateProfilePic)

	admin := protected.Group("/admin")
	admin.Use(s.sessions.RequireAdmin())
	admin.GET("/jobs", h.SchedulerPanel)
	admin.POST("/jobs/:id/run", h.RunSchedulerJob)

	return nil
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP on the configured address until ctx is done, then shuts
// the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting web server", "listen", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

// requestLogger logs every request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
