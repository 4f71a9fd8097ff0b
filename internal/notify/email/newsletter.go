package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/database"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

// NewsletterService renders and sends newsletter emails.
type NewsletterService struct {
	config *config.Config
	mailer Mailer
}

// DigestRecipe is a recipe as listed in the digest email.
type DigestRecipe struct {
	Name        string
	Meal        database.MealType
	Description string
	CreatedBy   string
	URL         string
	ImageURL    string
}

type welcomeData struct {
	Email     string
	ServerURL string
}

type digestData struct {
	Recipes   []DigestRecipe
	Since     string
	ServerURL string
}

// NewNewsletterService creates a newsletter service. A nil mailer disables sending.
func NewNewsletterService(cfg *config.Config, mailer Mailer) *NewsletterService {
	return &NewsletterService{
		config: cfg,
		mailer: mailer,
	}
}

// Enabled reports whether emails can be sent at all.
func (n *NewsletterService) Enabled() bool {
	return n.mailer != nil && n.config.Email != nil && n.config.Email.Enabled
}

// SendWelcome sends the welcome email to a new subscriber.
func (n *NewsletterService) SendWelcome(ctx context.Context, to string) error {
	if !n.Enabled() {
		log.Debug("Email is disabled, skipping welcome email")
		return nil
	}
	if n.config.Newsletter != nil && !n.config.Newsletter.WelcomeEmail {
		return nil
	}

	body, err := render("welcome.html", welcomeData{Email: to, ServerURL: n.config.ServerURL})
	if err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return n.mailer.Send(ctx, Message{
		To:      to,
		Subject: "Welcome to the Mealshare newsletter",
		HTML:    body,
	})
}

// SendDigest sends the list of new recipes to every subscriber and returns the
// number of emails delivered. Failures for single subscribers are logged and skipped.
func (n *NewsletterService) SendDigest(ctx context.Context, subscribers []database.Subscriber, recipes []database.Recipe, since time.Time) (int, error) {
	if !n.Enabled() {
		log.Debug("Email is disabled, skipping newsletter digest")
		return 0, nil
	}
	if len(recipes) == 0 || len(subscribers) == 0 {
		log.Info("Nothing to send in newsletter digest", "recipes", len(recipes), "subscribers", len(subscribers))
		return 0, nil
	}

	data := digestData{
		Recipes:   make([]DigestRecipe, 0, len(recipes)),
		Since:     humanize.Time(since),
		ServerURL: n.config.ServerURL,
	}
	for _, r := range recipes {
		data.Recipes = append(data.Recipes, DigestRecipe{
			Name:        r.Name,
			Meal:        r.Meal,
			Description: r.Description,
			CreatedBy:   r.CreatedBy,
			URL:         fmt.Sprintf("%s/recipe/%s", n.config.ServerURL, r.ID),
			ImageURL:    r.ImageURL,
		})
	}

	body, err := render("digest.html", data)
	if err != nil {
		return 0, fmt.Errorf("failed to render digest email: %w", err)
	}
	subject := fmt.Sprintf("%s new %s on Mealshare",
		humanize.Comma(int64(len(recipes))),
		pluralize(len(recipes), "recipe", "recipes"))

	sent := 0
	for _, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := n.mailer.Send(ctx, Message{To: sub.Email, Subject: subject, HTML: body}); err != nil {
			log.Error("Failed to send newsletter digest", "to", sub.Email, "error", err)
			continue
		}
		sent++
	}

	log.Info("Newsletter digest sent", "sent", sent, "subscribers", len(subscribers), "recipes", len(recipes))
	return sent, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
