package handler

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/images"
)

// RecipeImage serves the scaled image of a recipe. Images on this site are
// served by redirect. Anything else, and remote images that cannot be
// cached, falls back to the default recipe image, so the route never
// redirects off-site.
func (h *Handler) RecipeImage(c *gin.Context) {
	recipe, err := h.engine.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "/recipes")
		return
	}

	fallback := h.config.Defaults.RecipeImage
	src := recipe.ImageURL
	if localPath(src) {
		c.Redirect(http.StatusFound, src)
		return
	}
	if h.images == nil || !images.IsRemote(src) {
		c.Redirect(http.StatusFound, fallback)
		return
	}

	if err := h.images.Serve(c.Request.Context(), c.Writer, c.Request, src); err != nil {
		log.Warn("Failed to serve cached image, using default", "recipe", recipe.ID, "error", err)
		c.Redirect(http.StatusFound, fallback)
	}
}

// localPath reports whether p is an absolute path on this site.
func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
