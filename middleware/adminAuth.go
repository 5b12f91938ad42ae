package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"casabay/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware guards back-office routes. It validates the bearer
// token, rejects revoked tokens, and stores the admin's email on the context
// so decision handlers can record the acting administrator.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ExtractClaims(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if sub, _ := claims["sub"].(string); sub != "admin" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		// Revoked tokens live in the auth cache until their natural expiry.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		revoked, err := utils.GetAuthCacheClient().Exists(ctx, "revoked:"+utils.HashToken(tokenString)).Result()
		if err == nil && revoked > 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}

		email, _ := claims["email"].(string)
		c.Set("adminEmail", email)
		c.Set("isAdmin", true)
		c.Next()
	}
}
