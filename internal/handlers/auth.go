package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/auth"
	"github.com/taskwise-dev/taskwise/internal/httperr"
	"github.com/taskwise-dev/taskwise/internal/models"
	"github.com/taskwise-dev/taskwise/internal/types"
	"github.com/taskwise-dev/taskwise/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Register(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.Validation(ctx, "Invalid request", map[string]interface{}{"reason": err.Error()})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err == nil {
		httperr.BadRequest(ctx, "Email already registered")
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		httperr.Internal(ctx, "Internal server error")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		httperr.Internal(ctx, "Internal server error")
		return
	}

	name := strings.TrimSpace(req.Name)

	if name == "" {
		// Default to the local part of the email, matching signup forms
		// that treat the display name as optional.
		name = strings.SplitN(req.Email, "@", 2)[0]
	}

	newUser := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		httperr.Internal(ctx, "Internal server error")
		return
	}

	token, err := auth.GenerateJWT(newUser.ID, newUser.Email)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		httperr.Internal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": types.UserResponse{
			ID:    newUser.ID,
			Name:  newUser.Name,
			Email: newUser.Email,
		},
	})
}

func Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.Validation(ctx, "Invalid request", map[string]interface{}{"reason": err.Error()})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(ctx, "Incorrect email or password")
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		httperr.Internal(ctx, "Internal server error")
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash), []byte(req.Password))

	if err != nil {
		httperr.Unauthorized(ctx, "Incorrect email or password")
		return
	}

	token, err := auth.GenerateJWT(existingUser.ID, existingUser.Email)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		httperr.Internal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": types.UserResponse{
			ID:    existingUser.ID,
			Name:  existingUser.Name,
			Email: existingUser.Email,
		},
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		httperr.Unauthorized(ctx, "User not authenticated")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:    currentUser.ID,
			Name:  currentUser.Name,
			Email: currentUser.Email,
		},
	})
}

func Logout(ctx *gin.Context) {
	token, err := utils.GetBearerToken(ctx)

	if err != nil {
		httperr.Unauthorized(ctx, "User not authenticated")
		return
	}

	auth.RevokeToken(token)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
