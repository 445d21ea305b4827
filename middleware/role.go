// file: middleware/role.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/models"
)

// RoleRequired admits organizers and staff holding one of roles.
func RoleRequired(roles ...models.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if !p.IsStaff() {
			c.Next()
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Insufficient role")
	}
}
