// file: controllers/checkpoint_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/i18n"
	"go-event-checkin/middleware"
	"go-event-checkin/services"
)

// CheckpointController exposes the checkpoint registry.
type CheckpointController struct {
	Checkpoints *services.CheckpointService
	Translator  services.Translator
}

// NewCheckpointController creates the controller.
func NewCheckpointController(checkpoints *services.CheckpointService, tr services.Translator) *CheckpointController {
	return &CheckpointController{Checkpoints: checkpoints, Translator: tr}
}

// Create handles POST /api/events/:eventId/checkpoints.
func (cc *CheckpointController) Create(c *gin.Context) {
	var body services.CheckpointInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cp, err := cc.Checkpoints.Create(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

// List handles GET /api/events/:eventId/checkpoints.
func (cc *CheckpointController) List(c *gin.Context) {
	cps, err := cc.Checkpoints.List(c.Request.Context(), middleware.Principal(c), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cps)
}

// Update handles PUT /api/checkpoints/:id.
func (cc *CheckpointController) Update(c *gin.Context) {
	var body services.CheckpointInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cp, err := cc.Checkpoints.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// Delete handles DELETE /api/checkpoints/:id.
func (cc *CheckpointController) Delete(c *gin.Context) {
	if err := cc.Checkpoints.Delete(c.Request.Context(), middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ValidateExit handles PATCH /api/checkpoints/validate-exit/:id, marking
// everyone at the checkpoint as exited.
func (cc *CheckpointController) ValidateExit(c *gin.Context) {
	n, err := cc.Checkpoints.BulkExit(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": cc.Translator.T(locale(c), i18n.BulkExitCompleted, nil),
		"updated": n,
	})
}
