package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"casabay/config"
	"casabay/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 12 * time.Hour

// AdminLoginHandler authenticates the back-office administrator against the
// configured credentials and issues a session token.
func AdminLoginHandler(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	hash := config.AppConfig.AdminPasswordHash
	if hash == "" || input.Email != config.AppConfig.AdminEmail {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(input.Password)); err != nil {
		zap.L().Warn("failed admin login attempt", zap.String("email", input.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.GenerateToken("admin", input.Email, adminTokenTTL)
	if err != nil {
		zap.L().Error("failed to issue admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(adminTokenTTL.Seconds())})
}

// AdminSignOutHandler revokes the presented token for the remainder of its
// lifetime.
func AdminSignOutHandler(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := "revoked:" + utils.HashToken(tokenString)
	if err := utils.GetAuthCacheClient().Set(ctx, key, "1", adminTokenTTL).Err(); err != nil {
		zap.L().Error("failed to revoke admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
