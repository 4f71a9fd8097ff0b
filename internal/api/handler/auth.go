package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/auth"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/web/templates/pages"
)

func (h *Handler) LoginPage(c *gin.Context) {
	if user := auth.CurrentUser(c); user != nil {
		c.Redirect(http.StatusFound, "/profile/"+user.Username)
		return
	}
	h.render(c, http.StatusOK, pages.Login(h.layout(c)))
}

func (h *Handler) Login(c *gin.Context) {
	actor, err := h.engine.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		h.fail(c, err, "/login")
		return
	}
	h.startSession(c, actor, "/profile/"+actor.Username)
}

func (h *Handler) RegisterPage(c *gin.Context) {
	if user := auth.CurrentUser(c); user != nil {
		c.Redirect(http.StatusFound, "/profile/"+user.Username)
		return
	}
	h.render(c, http.StatusOK, pages.Register(h.layout(c)))
}

func (h *Handler) Register(c *gin.Context) {
	actor, err := h.engine.Register(c.Request.Context(), engine.RegisterInput{
		Username:     c.PostForm("username"),
		Email:        c.PostForm("email"),
		Password:     c.PostForm("password"),
		ProfileImage: c.PostForm("profile_img"),
	})
	if err != nil {
		h.fail(c, err, "/register")
		return
	}
	h.startSession(c, actor, "/profile/"+actor.Username, "Welcome! Thank you for signing up!😊")
}

func (h *Handler) startSession(c *gin.Context, actor engine.Actor, location string, flashes ...string) {
	if err := h.sessions.Login(c, models.FromActor(actor)); err != nil {
		log.Error("Failed to start session", "username", actor.Username, "error", err)
		h.InternalServerError(c)
		return
	}
	h.redirect(c, location, flashes...)
}

func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Logout(c)
	h.redirect(c, "/login", "Goodbye! You have been logged out")
}
