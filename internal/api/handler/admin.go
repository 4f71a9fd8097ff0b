package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/mealshare/mealshare/web/templates/pages"
)

// SchedulerPanel lists the background jobs and their last runs.
func (h *Handler) SchedulerPanel(c *gin.Context) {
	jobs := h.engine.GetScheduler().Jobs()
	h.render(c, http.StatusOK, pages.SchedulerPanel(h.layout(c), models.ToJobs(jobs)))
}

// RunSchedulerJob manually triggers a background job.
func (h *Handler) RunSchedulerJob(c *gin.Context) {
	jobID := c.Param("id")

	job, ok := h.engine.GetScheduler().GetJob(jobID)
	if !ok {
		h.NotFound(c)
		return
	}
	if !h.sessions.VerifyToken(c, c.PostForm("token")) {
		h.redirect(c, "/admin/jobs", "Your session changed, please try again")
		return
	}

	if err := h.engine.GetScheduler().RunJobNow(jobID); err != nil {
		log.Error("Failed to trigger job", "id", jobID, "error", err)
		h.redirect(c, "/admin/jobs", "Failed to start "+job.Name)
		return
	}
	h.redirect(c, "/admin/jobs", job.Name+" started")
}
