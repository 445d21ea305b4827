// file: controllers/auth_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-event-checkin/logger"
	"go-event-checkin/middleware"
	"go-event-checkin/models"
	"go-event-checkin/services"
)

// AuthController handles organizer and staff sessions.
type AuthController struct {
	Accounts *services.AccountService
}

// NewAuthController creates the controller.
func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{Accounts: accounts}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// startSession stores p and answers with it.
func startSession(c *gin.Context, p models.Principal) {
	if err := middleware.SetPrincipal(c, p); err != nil {
		respondError(c, services.StorageError("save session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "principal": p})
}

// Signup creates an organizer account and logs it in.
func (ac *AuthController) Signup(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "name, email and password are required")
		return
	}
	acc, err := ac.Accounts.Signup(c.Request.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	startSession(c, models.Principal{ID: acc.ID, Type: models.PrincipalAdmin, Email: acc.Email})
}

// Login authenticates an organizer.
func (ac *AuthController) Login(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	p, err := ac.Accounts.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info.Printf("[AuthController.Login] admin %s logged in", p.ID)
	startSession(c, p)
}

// StaffLogin authenticates event staff.
func (ac *AuthController) StaffLogin(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	p, err := ac.Accounts.StaffLogin(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info.Printf("[AuthController.StaffLogin] staff %s logged in for event %s", p.ID, p.EventID)
	startSession(c, p)
}

// Logout clears the session.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := middleware.ClearPrincipal(c); err != nil {
		logger.Error.Printf("[AuthController.Logout] clearing session: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the current principal.
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "principal": middleware.Principal(c)})
}
