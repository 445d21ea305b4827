// file: controllers/live_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-event-checkin/middleware"
	"go-event-checkin/models"
	"go-event-checkin/services"
)

// LiveController serves the aggregate views dashboards load on (re)connect.
type LiveController struct {
	Accounts   *services.AccountService
	Aggregator *services.Aggregator
}

// NewLiveController creates the controller.
func NewLiveController(accounts *services.AccountService, agg *services.Aggregator) *LiveController {
	return &LiveController{Accounts: accounts, Aggregator: agg}
}

// scope resolves the event and applies the tenancy check.
func (lc *LiveController) scope(c *gin.Context) (string, bool) {
	eventID, ok := eventScope(c)
	if !ok {
		return "", false
	}
	if _, err := lc.Accounts.GetEvent(c.Request.Context(), middleware.Principal(c), eventID); err != nil {
		respondError(c, err)
		return "", false
	}
	return eventID, true
}

// LiveStatus handles GET /api/live-status.
func (lc *LiveController) LiveStatus(c *gin.Context) {
	eventID, ok := lc.scope(c)
	if !ok {
		return
	}
	out, err := lc.Aggregator.LiveStatus(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DashboardStats handles GET /api/dashboard-stats.
func (lc *LiveController) DashboardStats(c *gin.Context) {
	eventID, ok := lc.scope(c)
	if !ok {
		return
	}
	out, err := lc.Aggregator.DashboardStats(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// RegistrationDeskStats handles GET /api/registration-desk-stats.
func (lc *LiveController) RegistrationDeskStats(c *gin.Context) {
	eventID, ok := lc.scope(c)
	if !ok {
		return
	}
	out, err := lc.Aggregator.RegistrationDeskStats(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// RecentScans handles GET /api/recent-scans[?limit=N].
func (lc *LiveController) RecentScans(c *gin.Context) {
	eventID, ok := lc.scope(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := lc.Aggregator.RecentScans(c.Request.Context(), eventID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ParticipantTree handles GET /api/participants/with-checkpoints.
func (lc *LiveController) ParticipantTree(c *gin.Context) {
	eventID, ok := lc.scope(c)
	if !ok {
		return
	}
	out, err := lc.Aggregator.ParticipantTree(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CheckpointStats handles
// GET /api/events/:eventId/checkpoints/:checkpointId/stats[?compareMode=TOTAL|CHECKPOINT&compareTargetId=ID].
func (lc *LiveController) CheckpointStats(c *gin.Context) {
	eventID := c.Param("eventId")
	if _, err := lc.Accounts.GetEvent(c.Request.Context(), middleware.Principal(c), eventID); err != nil {
		respondError(c, err)
		return
	}
	mode := models.CompareMode(c.DefaultQuery("compareMode", string(models.CompareNone)))
	out, err := lc.Aggregator.CheckpointStats(c.Request.Context(), eventID, c.Param("checkpointId"), mode, c.Query("compareTargetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
