package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/auth"
	"github.com/taskwise-dev/taskwise/internal/httperr"
	"github.com/taskwise-dev/taskwise/internal/models"
	"github.com/taskwise-dev/taskwise/internal/types"
)

type AuthenticatedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

const ContextTokenKey = "token"

func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			httperr.Unauthorized(ctx, "Authorization token is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" {
			httperr.Unauthorized(ctx, "Authorization header format must be Bearer {token}")
			return
		}

		tokenString := parts[1]

		if auth.IsTokenRevoked(tokenString) {
			httperr.Unauthorized(ctx, "Token has been revoked")
			return
		}

		token, err := auth.VerifyJWT(tokenString)

		if err != nil || !token.Valid {
			httperr.Unauthorized(ctx, "Invalid or expired token")
			return
		}

		userID, err := auth.UserIDFromToken(token)

		if err != nil {
			httperr.Unauthorized(ctx, "Invalid token claims")
			return
		}

		var user models.User

		if err := db.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			httperr.Unauthorized(ctx, "User not found")
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}
