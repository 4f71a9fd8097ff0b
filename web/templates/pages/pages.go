// Package pages renders the HTML pages of Mealshare as templ components.
// The *_templ.go files are generated from the .templ sources with templ generate.
package pages

import (
	"net/url"

	"github.com/a-h/templ"
	"github.com/mealshare/mealshare/internal/api/models"
)

// Layout holds the data every page needs for the navigation bar and notices.
type Layout struct {
	// User is the logged in user, nil for anonymous visitors.
	User    *models.User
	Flashes []string
	// Token is the action token of the session, added to links that change data.
	Token string
	// Thumbnails is set when recipe cards load the scaled image from the cache.
	Thumbnails bool
}

func cardImage(l Layout, r models.Recipe) string {
	if l.Thumbnails {
		return r.ThumbnailURL
	}
	return r.ImageURL
}

func deleteRecipeURL(l Layout, id string) templ.SafeURL {
	return templ.SafeURL("/delete-recipe/" + url.PathEscape(id) + "?token=" + url.QueryEscape(l.Token))
}

func deleteAccountURL(l Layout, username string) templ.SafeURL {
	return templ.SafeURL("/delete-account/" + url.PathEscape(username) + "?token=" + url.QueryEscape(l.Token))
}
