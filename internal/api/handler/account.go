package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/auth"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/mealshare/mealshare/internal/engine"
	"github.com/mealshare/mealshare/web/templates/pages"
)

func (h *Handler) Profile(c *gin.Context) {
	user := auth.CurrentUser(c)
	profile, err := h.engine.Profile(c.Request.Context(), models.ToActor(user), c.Param("username"))
	if err != nil {
		h.fail(c, err, "/")
		return
	}
	h.render(c, http.StatusOK, pages.Profile(h.layout(c), models.ToProfile(profile, user)))
}

// DeleteAccount removes the account and all recipes of the user. Users
// deleting their own account are logged out.
func (h *Handler) DeleteAccount(c *gin.Context) {
	target := strings.ToLower(c.Param("username"))
	if !h.confirmed(c, "Delete the account "+target+" and all of its recipes?", "/delete-account/"+url.PathEscape(target), "/profile/"+url.PathEscape(target)) {
		return
	}
	self, err := h.engine.DeleteAccount(c.Request.Context(), models.ToActor(auth.CurrentUser(c)), target)
	if err != nil {
		if errors.Is(err, engine.ErrForbidden) {
			h.redirect(c, "/profile/"+target, "This is not your account to delete!")
			return
		}
		h.fail(c, err, "/profile/"+target)
		return
	}
	if self {
		h.sessions.Logout(c)
		h.redirect(c, "/login", "Sorry to see you go! Your user has been deleted.")
		return
	}
	h.redirect(c, "/recipes", "The account of "+target+" has been deleted.")
}

func (h *Handler) UpdatePasswordPage(c *gin.Context) {
	target := strings.ToLower(c.Param("username"))
	if user := auth.CurrentUser(c); user.Username != target {
		h.redirect(c, "/profile/"+target, "You can only change your own password")
		return
	}
	h.render(c, http.StatusOK, pages.UpdatePassword(h.layout(c), target))
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	target := strings.ToLower(c.Param("username"))
	err := h.engine.UpdatePassword(c.Request.Context(),
		models.ToActor(auth.CurrentUser(c)),
		target,
		c.PostForm("password"),
		c.PostForm("new-password"),
		c.PostForm("confirm-password"),
	)
	switch {
	case err == nil:
		h.redirect(c, "/profile/"+target, "Password updated! 😊")
	case errors.Is(err, engine.ErrInvalidCredentials):
		h.redirect(c, "/update-password/"+target, "Incorrect password. Please try again😔")
	case errors.Is(err, engine.ErrForbidden):
		h.redirect(c, "/profile/"+target, "You can only change your own password")
	default:
		h.fail(c, err, "/update-password/"+target)
	}
}

func (h *Handler) UpdateProfilePicPage(c *gin.Context) {
	user := auth.CurrentUser(c)
	profile, err := h.engine.Profile(c.Request.Context(), models.ToActor(user), c.Param("username"))
	if err != nil {
		h.fail(c, err, "/")
		return
	}
	if !profile.Editable {
		h.redirect(c, "/profile/"+profile.User.Username, message(engine.ErrForbidden))
		return
	}
	h.render(c, http.StatusOK, pages.UpdateProfilePicture(h.layout(c), profile.User.Username, profile.User.ProfileImage))
}

func (h *Handler) UpdateProfilePic(c *gin.Context) {
	target := strings.ToLower(c.Param("username"))
	err := h.engine.UpdateProfilePicture(c.Request.Context(), models.ToActor(auth.CurrentUser(c)), target, c.PostForm("profile_img"))
	switch {
	case err == nil:
		h.redirect(c, "/profile/"+target, "Profile picture updated 😊")
	case errors.Is(err, engine.ErrForbidden):
		h.redirect(c, "/profile/"+target, message(err))
	default:
		h.fail(c, err, "/update-profile-pic/"+target)
	}
}
