// Package controllers provides the HTTP handlers of the check-in API.
// file: controllers/response.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"go-event-checkin/logger"
	"go-event-checkin/middleware"
	"go-event-checkin/services"
)

// respondError writes the error envelope for err. Storage failures are
// logged and reported without detail.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := kind.Status()
	message := "Internal server error"

	var se *services.Error
	if kind != services.KindStorage && errors.As(err, &se) {
		message = se.Message
	} else {
		logger.Error.Printf("[%s %s] %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, middleware.ErrorBody(status, message))
}

// badRequest reports a malformed request body or query.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, middleware.ErrorBody(http.StatusBadRequest, message))
}

// locale picks the first Accept-Language tag, or "" to use the default.
func locale(c *gin.Context) string {
	tags, _, err := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, _ := tags[0].Base()
	return base.String()
}

// eventScope resolves the eventId query parameter. Staff default to their
// own event.
func eventScope(c *gin.Context) (string, bool) {
	if id := c.Query("eventId"); id != "" {
		return id, true
	}
	if p := middleware.Principal(c); p.IsStaff() {
		return p.EventID, true
	}
	badRequest(c, "eventId is required")
	return "", false
}
