// file: middleware/active_staff.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/logger"
)

// StaffChecker reports whether a staff login is still allowed to act.
type StaffChecker interface {
	StaffActive(ctx context.Context, staffID string) (bool, error)
}

// ActiveStaff re-reads staff principals on every request so a deactivated
// member is logged out immediately instead of when the cookie expires.
// Admin principals pass through. Mount it after AuthRequired.
func ActiveStaff(checker StaffChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if !p.IsStaff() {
			c.Next()
			return
		}

		active, err := checker.StaffActive(c.Request.Context(), p.ID)
		if err != nil {
			logger.Error.Printf("[ActiveStaff] lookup of staff %s failed: %v", p.ID, err)
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !active {
			logger.Warn.Printf("[ActiveStaff] staff %s is inactive, clearing session", p.ID)
			_ = ClearPrincipal(c)
			abort(c, http.StatusUnauthorized, "Staff account is inactive")
			return
		}
		c.Next()
	}
}
