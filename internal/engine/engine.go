package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/mealshare/mealshare/internal/cache"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/mealshare/mealshare/internal/notify/email"
	"github.com/mealshare/mealshare/internal/scheduler"
	"golang.org/x/crypto/bcrypt"
)

// Engine holds the business rules of Mealshare. Handlers call into it with an
// Actor and it talks to the database, the recipe cache and the mailer.
type Engine struct {
	cfg        *config.Config
	db         database.DB
	cache      *cache.RecipeCache
	newsletter *email.NewsletterService
	scheduler  *scheduler.Scheduler
	validate   *validator.Validate

	passwordCost int

	// background work like welcome emails
	wg sync.WaitGroup

	digestMu   sync.Mutex
	lastDigest time.Time

	closeOnce sync.Once
	closeErr  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithMailer overrides the mailer built from the email config.
func WithMailer(m email.Mailer) Option {
	return func(e *Engine) {
		e.newsletter = email.NewNewsletterService(e.cfg, m)
	}
}

// WithRecipeCache overrides the recipe cache built from the cache config.
func WithRecipeCache(c *cache.RecipeCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithPasswordCost sets the bcrypt cost used for new password hashes.
func WithPasswordCost(cost int) Option {
	return func(e *Engine) {
		e.passwordCost = cost
	}
}

// New creates a new Engine instance.
func New(cfg *config.Config, db database.DB, opts ...Option) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	e := &Engine{
		cfg:          cfg,
		db:           db,
		scheduler:    sched,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		passwordCost: bcrypt.DefaultCost,
	}

	if cfg.Email != nil && cfg.Email.Enabled {
		mailer, err := email.NewMailer(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to create mailer: %w", err)
		}
		e.newsletter = email.NewNewsletterService(cfg, mailer)
	} else {
		e.newsletter = email.NewNewsletterService(cfg, nil)
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cache == nil {
		e.cache = cache.NewRecipeCache(cfg.Cache)
	}

	if err := e.setupJobs(); err != nil {
		return nil, err
	}

	return e, nil
}

// GetScheduler returns the scheduler instance.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// Run starts the background jobs and blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	<-ctx.Done()
	return nil
}

// Close stops the scheduler and waits for pending background work.
// Calling Close more than once is safe.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.scheduler.Stop()
		e.wg.Wait()
	})
	return e.closeErr
}

// background runs fn detached from the request context.
func (e *Engine) background(name string, fn func(ctx context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Error("Background task failed", "task", name, "error", err)
		}
	}()
}

// setupJobs configures all scheduled jobs.
func (e *Engine) setupJobs() error {
	ttl := time.Duration(e.cfg.Cache.GetCacheTTLSeconds()) * time.Second
	if err := e.scheduler.AddIntervalJob("cache_purge", "Recipe Cache Purge", ttl, func(ctx context.Context) error {
		e.cache.ClearAll(ctx)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to add cache purge job: %w", err)
	}

	if e.cfg.Newsletter != nil && e.cfg.Newsletter.Enabled {
		if !e.newsletter.Enabled() {
			log.Warn("Newsletter is enabled but email is disabled, digest job not scheduled")
		} else if err := e.scheduler.AddCronJob("newsletter_digest", "Newsletter Digest", e.cfg.Newsletter.Schedule, func(ctx context.Context) error {
			_, err := e.SendDigest(ctx)
			return err
		}); err != nil {
			return fmt.Errorf("failed to add newsletter digest job: %w", err)
		}
	}

	log.Info("Scheduled jobs configured successfully")
	return nil
}
