package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Subscribe adds email to the newsletter. A duplicate subscription returns
// ErrAlreadySubscribed. New subscribers get a welcome email in the background.
func (e *Engine) Subscribe(ctx context.Context, address string) error {
	address = strings.ToLower(strings.TrimSpace(address))
	if err := e.validate.Var(address, "required,email"); err != nil {
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	}

	created, err := e.db.CreateSubscriber(ctx, address)
	if err != nil {
		return err
	}
	if !created {
		return ErrAlreadySubscribed
	}

	log.Info("New newsletter subscriber")
	if e.newsletter.Enabled() {
		e.background("welcome_email", func(ctx context.Context) error {
			return e.newsletter.SendWelcome(ctx, address)
		})
	}
	return nil
}

// SendDigest emails the recipes created since the previous digest to every
// subscriber. The first digest looks back the configured number of days.
func (e *Engine) SendDigest(ctx context.Context) (int, error) {
	e.digestMu.Lock()
	defer e.digestMu.Unlock()

	now := time.Now()
	since := e.lastDigest
	if since.IsZero() {
		since = now.AddDate(0, 0, -e.cfg.Newsletter.GetLookbackDays())
	}

	recipes, err := e.db.GetRecipesSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to get new recipes: %w", err)
	}
	subscribers, err := e.db.GetSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscribers: %w", err)
	}

	sent, err := e.newsletter.SendDigest(ctx, subscribers, recipes, since)
	if err != nil {
		return sent, err
	}
	if sent > 0 {
		e.lastDigest = now
	}
	return sent, nil
}
