package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/taskwise-dev/taskwise/internal/middleware"
	"github.com/taskwise-dev/taskwise/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("User not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("Invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (string, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return "", err
	}

	return user.ID, nil
}

// GetBearerToken returns the raw token the middleware authenticated with.
func GetBearerToken(ctx *gin.Context) (string, error) {
	value, exists := ctx.Get(middleware.ContextTokenKey)

	if !exists {
		return "", fmt.Errorf("No token in context")
	}

	token, ok := value.(string)

	if !ok {
		return "", fmt.Errorf("Invalid token type in context")
	}

	return token, nil
}
