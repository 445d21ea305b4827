// file: controllers/event_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/middleware"
	"go-event-checkin/services"
)

// EventController manages events and their staff.
type EventController struct {
	Accounts *services.AccountService
}

// NewEventController creates the controller.
func NewEventController(accounts *services.AccountService) *EventController {
	return &EventController{Accounts: accounts}
}

// CreateEvent handles POST /api/events.
func (ec *EventController) CreateEvent(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ev, err := ec.Accounts.CreateEvent(c.Request.Context(), middleware.Principal(c), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// ListEvents handles GET /api/events.
func (ec *EventController) ListEvents(c *gin.Context) {
	events, err := ec.Accounts.ListEvents(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetEvent handles GET /api/events/:eventId.
func (ec *EventController) GetEvent(c *gin.Context) {
	ev, err := ec.Accounts.GetEvent(c.Request.Context(), middleware.Principal(c), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// UpdateEvent handles PUT /api/events/:eventId.
func (ec *EventController) UpdateEvent(c *gin.Context) {
	var body services.EventUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	ev, err := ec.Accounts.UpdateEvent(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// AddStaff handles POST /api/events/:eventId/staff. The generated password
// is only ever shown in this response.
func (ec *EventController) AddStaff(c *gin.Context) {
	var body services.StaffInput
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	created, err := ec.Accounts.AddStaff(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListStaff handles GET /api/events/:eventId/staff.
func (ec *EventController) ListStaff(c *gin.Context) {
	staff, err := ec.Accounts.ListStaff(c.Request.Context(), middleware.Principal(c), c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// UpdateStaff handles PATCH /api/events/:eventId/staff/:staffId.
func (ec *EventController) UpdateStaff(c *gin.Context) {
	var body services.StaffUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	st, err := ec.Accounts.UpdateStaff(c.Request.Context(), middleware.Principal(c), c.Param("eventId"), c.Param("staffId"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
