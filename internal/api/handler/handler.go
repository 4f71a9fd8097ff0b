package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/auth"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/internal/images"
	"github.com/mealshare/mealshare/web/templates/pages"
	"github.com/samber/lo"
)

// latestRecipes is the number of recipes shown on the home page.
const latestRecipes = 6

type Handler struct {
	engine   *engine.Engine
	config   *config.Config
	sessions *auth.Sessions
	images   *images.Cache
}

// New creates the page handlers. img may be nil when the image cache is disabled.
func New(eng *engine.Engine, cfg *config.Config, s *auth.Sessions, img *images.Cache) *Handler {
	return &Handler{
		engine:   eng,
		config:   cfg,
		sessions: s,
		images:   img,
	}
}

// layout collects the data of the shared page layout and consumes pending flashes.
func (h *Handler) layout(c *gin.Context) pages.Layout {
	l := pages.Layout{User: auth.CurrentUser(c), Thumbnails: h.images != nil}
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return l
	}
	l.Token = h.sessions.Token(c)

	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		l.Flashes = lo.FilterMap(flashes, func(f any, _ int) (string, bool) {
			s, ok := f.(string)
			return s, ok
		})
		if err := session.Save(); err != nil {
			log.Error("Failed to save session", "error", err)
		}
	}
	return l
}

func (h *Handler) render(c *gin.Context, status int, page templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := page.Render(c.Request.Context(), c.Writer); err != nil {
		log.Error("Failed to render page", "path", c.FullPath(), "error", err)
	}
}

// redirect stores the flashes in the session and redirects to location.
func (h *Handler) redirect(c *gin.Context, location string, flashes ...string) {
	session := sessions.Default(c)
	for _, f := range flashes {
		session.AddFlash(f)
	}
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
	}
	c.Redirect(http.StatusFound, location)
}

// confirmed reports whether the request carries the action token of the
// session. Otherwise a page asking to confirm the action is rendered, with a
// link to action that carries the token.
func (h *Handler) confirmed(c *gin.Context, question, action, cancel string) bool {
	if h.sessions.VerifyToken(c, c.Query("token")) {
		return true
	}
	log.Debug("Action without valid token, asking for confirmation", "path", c.Request.URL.Path)
	l := h.layout(c)
	h.render(c, http.StatusOK, pages.Confirm(l, question, action+"?token="+url.QueryEscape(l.Token), cancel))
	return false
}

// fail presents err to the user. Missing resources get the 404 page and
// unexpected errors the 500 page. Everything else becomes a flash notice on
// the page at location.
func (h *Handler) fail(c *gin.Context, err error, location string) {
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		h.NotFound(c)
	case engine.KindServer:
		log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		h.InternalServerError(c)
	default:
		h.redirect(c, location, message(err))
	}
}

func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, pages.NotFound(h.layout(c)))
}

func (h *Handler) InternalServerError(c *gin.Context) {
	h.render(c, http.StatusInternalServerError, pages.InternalServerError(h.layout(c)))
}

// Recovery renders the 500 page for panics in later handlers.
func (h *Handler) Recovery(c *gin.Context, recovered any) {
	log.Error("Recovered from panic", "path", c.Request.URL.Path, "panic", recovered)
	h.InternalServerError(c)
	c.Abort()
}

func (h *Handler) Home(c *gin.Context) {
	recipes, err := h.engine.ListRecipes(c.Request.Context())
	if err != nil {
		// the home page still works without the latest recipes
		log.Error("Failed to get recipes", "error", err)
	}
	latest := models.ToRecipes(lo.Slice(recipes, 0, latestRecipes), auth.CurrentUser(c))
	h.render(c, http.StatusOK, pages.Home(h.layout(c), latest))
}

// Subscribe adds an email address to the newsletter and sends the visitor
// back to where the form was submitted.
func (h *Handler) Subscribe(c *gin.Context) {
	back := referrerPath(c.Request) + "#message"

	if err := h.engine.Subscribe(c.Request.Context(), c.PostForm("sub_email")); err != nil {
		h.fail(c, err, back)
		return
	}
	h.redirect(c, back, "Thank you for subscribing! 😊")
}

// referrerPath returns the path of the Referer header if it points to this
// site, and "/" otherwise.
func referrerPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
