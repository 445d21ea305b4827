// file: controllers/scan_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/middleware"
	"go-event-checkin/services"
)

// ScanController is the scanner-facing API.
type ScanController struct {
	Scans *services.ScanService
}

// NewScanController creates the controller.
func NewScanController(scans *services.ScanService) *ScanController {
	return &ScanController{Scans: scans}
}

// Scan handles POST /api/scan.
func (sc *ScanController) Scan(c *gin.Context) {
	var req services.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" || req.CheckpointID == "" {
		badRequest(c, "token, checkpointId and action are required")
		return
	}
	req.Locale = locale(c)

	res, err := sc.Scans.Scan(c.Request.Context(), middleware.Principal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Validate handles POST /api/staff/validate.
func (sc *ScanController) Validate(c *gin.Context) {
	var body struct {
		Token        string `json:"token"`
		CheckpointID string `json:"checkpointId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Token == "" || body.CheckpointID == "" {
		badRequest(c, "token and checkpointId are required")
		return
	}
	res, err := sc.Scans.Validate(c.Request.Context(), middleware.Principal(c), body.Token, body.CheckpointID, locale(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ParticipantStatus handles GET /api/participant-status/:token/:checkpointId.
func (sc *ScanController) ParticipantStatus(c *gin.Context) {
	status, err := sc.Scans.ParticipantStatus(c.Request.Context(), middleware.Principal(c), c.Param("token"), c.Param("checkpointId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
