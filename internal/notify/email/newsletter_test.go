package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu       sync.Mutex
	messages []Message
	failFor  map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("mailbox unavailable")
	}
	f.messages = append(f.messages, msg)
	return nil
}

func testConfig(enabled bool) *config.Config {
	return &config.Config{
		ServerURL:  "https://meals.example.com",
		Email:      &config.EmailConfig{Enabled: enabled, FromEmail: "noreply@example.com"},
		Newsletter: &config.NewsletterConfig{Enabled: true, WelcomeEmail: true},
	}
}

func TestSendWelcome(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewNewsletterService(testConfig(true), mailer)

	require.NoError(t, svc.SendWelcome(context.Background(), "new@x.com"))
	require.Len(t, mailer.messages, 1)
	msg := mailer.messages[0]
	assert.Equal(t, "new@x.com", msg.To)
	assert.Contains(t, msg.Subject, "Welcome")
	assert.Contains(t, msg.HTML, "new@x.com")
	assert.Contains(t, msg.HTML, "https://meals.example.com/recipes")
}

func TestSendWelcome_Disabled(t *testing.T) {
	mailer := &fakeMailer{}

	svc := NewNewsletterService(testConfig(false), mailer)
	require.NoError(t, svc.SendWelcome(context.Background(), "new@x.com"))
	assert.Empty(t, mailer.messages)

	cfg := testConfig(true)
	cfg.Newsletter.WelcomeEmail = false
	svc = NewNewsletterService(cfg, mailer)
	require.NoError(t, svc.SendWelcome(context.Background(), "new@x.com"))
	assert.Empty(t, mailer.messages)

	svc = NewNewsletterService(testConfig(true), nil)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.SendWelcome(context.Background(), "new@x.com"))
}

func TestSendDigest(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]bool{"broken@x.com": true}}
	svc := NewNewsletterService(testConfig(true), mailer)

	subscribers := []database.Subscriber{{Email: "a@x.com"}, {Email: "broken@x.com"}, {Email: "b@x.com"}}
	recipes := []database.Recipe{
		{ID: "r1", Name: "Oats <fast>", Meal: database.MealTypeBreakfast, CreatedBy: "alice"},
		{ID: "r2", Name: "Soup", Meal: database.MealTypeDinner, CreatedBy: "bob"},
	}

	sent, err := svc.SendDigest(context.Background(), subscribers, recipes, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, mailer.messages, 2)

	msg := mailer.messages[0]
	assert.Equal(t, "2 new recipes on Mealshare", msg.Subject)
	assert.Contains(t, msg.HTML, "https://meals.example.com/recipe/r1")
	assert.Contains(t, msg.HTML, "Oats &lt;fast&gt;", "recipe names are escaped")
	assert.Contains(t, msg.HTML, "Dinner by bob")
}

func TestSendDigest_NothingToSend(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewNewsletterService(testConfig(true), mailer)

	sent, err := svc.SendDigest(context.Background(), []database.Subscriber{{Email: "a@x.com"}}, nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, sent)

	sent, err = svc.SendDigest(context.Background(), nil, []database.Recipe{{ID: "r1"}}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.messages)
}

func TestSendDigest_SingleRecipeSubject(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewNewsletterService(testConfig(true), mailer)

	_, err := svc.SendDigest(context.Background(),
		[]database.Subscriber{{Email: "a@x.com"}},
		[]database.Recipe{{ID: "r1", Name: "Oats"}},
		time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, mailer.messages, 1)
	assert.Equal(t, "1 new recipe on Mealshare", mailer.messages[0].Subject)
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(&config.EmailConfig{Provider: config.EmailProviderSMTP})
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	m, err = NewMailer(&config.EmailConfig{Provider: config.EmailProviderSendGrid, SendGridAPIKey: "key"})
	require.NoError(t, err)
	assert.IsType(t, &SendGridMailer{}, m)

	_, err = NewMailer(&config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	m := NewSMTPMailer(&config.EmailConfig{SMTPHost: "127.0.0.1", SMTPPort: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@x.com"}), context.Canceled)
}
