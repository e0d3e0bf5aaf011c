package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/auth"
	"github.com/taskwise-dev/taskwise/internal/models"
	"github.com/taskwise-dev/taskwise/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

func setupRouter(t *testing.T) *gin.Engine {
	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	gin.SetMode(gin.TestMode)

	name := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))

	gdb, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(&models.User{}, &models.Task{}, &models.Conversation{}, &models.Message{}))

	db.DB = gdb

	return router.NewRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

type registeredUser struct {
	ID    string
	Email string
	Token string
}

func registerUser(t *testing.T, r *gin.Engine, email string) registeredUser {
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeJSON(t, w, &resp)

	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.User.ID)

	return registeredUser{ID: resp.User.ID, Email: resp.User.Email, Token: resp.Token}
}
