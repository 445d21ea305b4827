// file: controllers/page_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-event-checkin/logger"
	"go-event-checkin/services"
)

// Health answers load balancer checks.
func Health(c *gin.Context) {
	logger.Debug.Println("[Health] health check requested")
	c.String(http.StatusOK, "OK")
}

// TicketController serves participant QR tickets.
type TicketController struct {
	Tickets *services.TicketService
}

// NewTicketController creates the controller.
func NewTicketController(tickets *services.TicketService) *TicketController {
	return &TicketController{Tickets: tickets}
}

// GetQRCode handles GET /api/participants/:token/qrcode[?size=N].
func (tc *TicketController) GetQRCode(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "size must be a positive integer")
			return
		}
		size = n
	}

	png, err := tc.Tickets.TicketPNG(c.Request.Context(), c.Param("token"), size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\"ticket.png\"")
	c.Data(http.StatusOK, "image/png", png)
}
