package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
	"github.com/thesheunit/storefront/internal/session"
)

// ProfileHandler serves the signed-in user's own profile
type ProfileHandler struct{}

// NewProfileHandler creates a new profile handler
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// GetProfile handles GET /profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := middleware.GetSession(c).LoadProfile(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSignedOut):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			respondError(c, err, "Failed to load profile")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile,
	})
}

// UpdateProfile handles PUT /profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req user.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out := middleware.GetSession(c).EditProfile(c.Request.Context(), req)
	respondOutcome(c, out, "Profile updated successfully")
}
