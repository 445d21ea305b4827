// file: controllers/routes.go
package controllers

import (
	"github.com/gin-gonic/gin"

	"go-event-checkin/middleware"
	"go-event-checkin/models"
	"go-event-checkin/services"
)

// Handlers groups every controller the API serves.
type Handlers struct {
	Auth         *AuthController
	Events       *EventController
	Checkpoints  *CheckpointController
	Scans        *ScanController
	Participants *ParticipantController
	Tickets      *TicketController
	Live         *LiveController
	// StaffCheck re-validates staff sessions on every protected request.
	StaffCheck middleware.StaffChecker
}

// Services is what NewHandlers needs.
type Services struct {
	Accounts     *services.AccountService
	Checkpoints  *services.CheckpointService
	Scans        *services.ScanService
	Participants *services.ParticipantService
	Tickets      *services.TicketService
	Aggregator   *services.Aggregator
	Translator   services.Translator
}

// NewHandlers builds the controllers over s.
func NewHandlers(s Services) Handlers {
	return Handlers{
		Auth:         NewAuthController(s.Accounts),
		Events:       NewEventController(s.Accounts),
		Checkpoints:  NewCheckpointController(s.Checkpoints, s.Translator),
		Scans:        NewScanController(s.Scans),
		Participants: NewParticipantController(s.Participants),
		Tickets:      NewTicketController(s.Tickets),
		Live:         NewLiveController(s.Accounts, s.Aggregator),
		StaffCheck:   s.Accounts,
	}
}

// RegisterRoutes mounts /health and the /api tree. The session middleware
// must already be installed on router.
func RegisterRoutes(router gin.IRouter, h Handlers) {
	router.GET("/health", Health)

	api := router.Group("/api")

	// public
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/staff/login", h.Auth.StaffLogin)
	api.GET("/participants/:token/qrcode", h.Tickets.GetQRCode)

	protected := api.Group("", middleware.AuthRequired, middleware.ActiveStaff(h.StaffCheck))
	{
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.GET("/auth/me", h.Auth.Me)

		protected.POST("/scan", h.Scans.Scan)
		protected.POST("/staff/validate", h.Scans.Validate)
		protected.GET("/participant-status/:token/:checkpointId", h.Scans.ParticipantStatus)

		protected.GET("/events", h.Events.ListEvents)
		protected.GET("/events/:eventId", h.Events.GetEvent)
		protected.GET("/events/:eventId/checkpoints", h.Checkpoints.List)
		protected.GET("/events/:eventId/participants", h.Participants.List)
		protected.GET("/events/:eventId/checkpoints/:checkpointId/stats", h.Live.CheckpointStats)

		protected.GET("/live-status", h.Live.LiveStatus)
		protected.GET("/dashboard-stats", h.Live.DashboardStats)
		protected.GET("/registration-desk-stats", h.Live.RegistrationDeskStats)
		protected.GET("/recent-scans", h.Live.RecentScans)
		protected.GET("/participants/with-checkpoints", h.Live.ParticipantTree)
	}

	managers := protected.Group("", middleware.RoleRequired(models.StaffAdmin, models.StaffShowAdmin))
	{
		managers.POST("/events/:eventId/checkpoints", h.Checkpoints.Create)
		managers.PUT("/checkpoints/:id", h.Checkpoints.Update)
		managers.DELETE("/checkpoints/:id", h.Checkpoints.Delete)
		managers.PATCH("/checkpoints/validate-exit/:id", h.Checkpoints.ValidateExit)

		managers.POST("/events/:eventId/participants", h.Participants.Import)
		managers.PUT("/events/:eventId/participants/:id", h.Participants.Update)
		managers.DELETE("/events/:eventId/participants/:id", h.Participants.Delete)
		managers.GET("/events/:eventId/staff", h.Events.ListStaff)
	}

	admins := protected.Group("", middleware.AdminRequired())
	{
		admins.POST("/events", h.Events.CreateEvent)
		admins.PUT("/events/:eventId", h.Events.UpdateEvent)
		admins.POST("/events/:eventId/staff", h.Events.AddStaff)
		admins.PATCH("/events/:eventId/staff/:staffId", h.Events.UpdateStaff)
	}
}
