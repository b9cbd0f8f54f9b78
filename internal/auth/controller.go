package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthController issues tokens for the single admin identity. The password is
// checked against a bcrypt hash supplied via environment, there is no user
// table.
type AuthController struct {
	jwtSecret         string
	adminPasswordHash string
}

func NewAuthController(jwtSecret, adminPasswordHash string) *AuthController {
	return &AuthController{
		jwtSecret:         jwtSecret,
		adminPasswordHash: adminPasswordHash,
	}
}

// Login handles the admin password exchange for a token pair
func (a *AuthController) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if a.adminPasswordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin login is not configured"})
		return
	}

	if err := ComparePasswordHash([]byte(a.adminPasswordHash), req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	pair, err := GenerateTokenPair(a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// RefreshToken handles refresh token rotation
func (a *AuthController) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := RefreshTokenPair(req.RefreshToken, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, pair)
}
