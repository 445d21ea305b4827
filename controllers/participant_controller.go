// file: controllers/participant_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/middleware"
	"go-event-checkin/models"
	"go-event-checkin/services"
)

// ParticipantController handles onboarding and contact corrections.
type ParticipantController struct {
	Participants *services.ParticipantService
}

// NewParticipantController creates the controller.
func NewParticipantController(participants *services.ParticipantService) *ParticipantController {
	return &ParticipantController{Participants: participants}
}

// Import handles POST /api/events/:eventId/participants with a JSON array
// of already-parsed records.
func (pc *ParticipantController) Import(c *gin.Context) {
	var rows []models.ParticipantInput
	if err := c.ShouldBindJSON(&rows); err != nil {
		badRequest(c, "expected an array of participants")
		return
	}
	res, err := pc.Participants.Import(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// List handles GET /api/events/:eventId/participants.
func (pc *ParticipantController) List(c *gin.Context) {
	ps, err := pc.Participants.List(c.Request.Context(), middleware.Principal(c), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

// Update handles PUT /api/events/:eventId/participants/:id.
func (pc *ParticipantController) Update(c *gin.Context) {
	var body models.ParticipantUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := pc.Participants.Update(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), c.Param("id"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/events/:eventId/participants/:id.
func (pc *ParticipantController) Delete(c *gin.Context) {
	if err := pc.Participants.Delete(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
