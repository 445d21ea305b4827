// Package middleware provides request filters and security checks for the application.
// File: middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"go-event-checkin/logger"
	"go-event-checkin/models"
)

// session keys
const (
	keyID      = "principalId"
	keyType    = "principalType"
	keyRole    = "principalRole"
	keyEventID = "principalEventId"
	keyEmail   = "principalEmail"

	// principalKey is where AuthRequired leaves the principal on the gin context.
	principalKey = "principal"
)

// ErrorBody is the JSON error envelope shared with the controllers.
func ErrorBody(status int, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"message":    message,
			"statusCode": status,
		},
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody(status, message))
}

// -------------- session helpers --------------

// SetPrincipal stores p in the session cookie.
func SetPrincipal(c *gin.Context, p models.Principal) error {
	session := sessions.Default(c)
	session.Set(keyID, p.ID)
	session.Set(keyType, string(p.Type))
	session.Set(keyRole, string(p.Role))
	session.Set(keyEventID, p.EventID)
	session.Set(keyEmail, p.Email)
	return session.Save()
}

// ClearPrincipal logs the session out.
func ClearPrincipal(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// SessionPrincipal reads the principal stored by SetPrincipal.
func SessionPrincipal(c *gin.Context) (models.Principal, bool) {
	session := sessions.Default(c)
	id, _ := session.Get(keyID).(string)
	typ, _ := session.Get(keyType).(string)
	if id == "" || typ == "" {
		return models.Principal{}, false
	}
	role, _ := session.Get(keyRole).(string)
	eventID, _ := session.Get(keyEventID).(string)
	email, _ := session.Get(keyEmail).(string)
	return models.Principal{
		ID:      id,
		Type:    models.PrincipalType(typ),
		Role:    models.StaffRole(role),
		EventID: eventID,
		Email:   email,
	}, true
}

// Principal returns the principal AuthRequired attached to the request.
func Principal(c *gin.Context) models.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(models.Principal); ok {
			return p
		}
	}
	return models.Principal{}
}

// -------------- authentication middleware --------------

// AuthRequired rejects requests without a principal in the session and
// otherwise exposes it through Principal.
//
//	api.Use(AuthRequired)
func AuthRequired(c *gin.Context) {
	p, ok := SessionPrincipal(c)
	if !ok {
		logger.Warn.Printf("[AuthRequired] no principal in session for %s %s", c.Request.Method, c.Request.URL.Path)
		abort(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	c.Set(principalKey, p)
	logger.Debug.Printf("[AuthRequired] %s %s authenticated", p.Type, p.ID)
	c.Next()
}
