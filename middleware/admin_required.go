// file: middleware/admin_required.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/logger"
	"go-event-checkin/models"
)

// AdminRequired lets only organizer accounts through. Runs after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p.Type != models.PrincipalAdmin {
			logger.Warn.Printf("[AdminRequired] blocked %s %s", p.Type, p.ID)
			abort(c, http.StatusForbidden, "Organizer account required")
			return
		}
		c.Next()
	}
}
