package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/handlers"
	"github.com/taskwise-dev/taskwise/internal/llm"
	"github.com/taskwise-dev/taskwise/internal/models"
)

type modelTurn struct {
	content   string
	toolCalls []map[string]interface{}
}

func stubModel(t *testing.T, turns []modelTurn) *httptest.Server {
	call := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Less(t, call, len(turns), "more model calls than stubbed turns")

		turn := turns[call]
		call++

		message := map[string]interface{}{
			"role":    "assistant",
			"content": turn.content,
		}
		if len(turn.toolCalls) > 0 {
			message["tool_calls"] = turn.toolCalls
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": message, "finish_reason": "stop"},
			},
		})
	}))

	t.Cleanup(srv.Close)
	handlers.InitChatClient(llm.NewClient(srv.URL, "test-key", "test-model"))

	return srv
}

func addTaskTurns(title, reply string) []modelTurn {
	return []modelTurn{
		{
			toolCalls: []map[string]interface{}{
				{
					"id":   "call_1",
					"type": "function",
					"function": map[string]interface{}{
						"name":      "add_task",
						"arguments": `{"title": "` + title + `"}`,
					},
				},
			},
		},
		{content: reply},
	}
}

type chatResponseJSON struct {
	Response       string `json:"response"`
	ConversationID uint   `json:"conversation_id"`
	ToolCalls      []struct {
		ToolName  string                 `json:"tool_name"`
		Arguments map[string]interface{} `json:"arguments"`
		Result    string                 `json:"result"`
	} `json:"tool_calls"`
	CreatedAt time.Time `json:"created_at"`
}

func TestChatCreatesTaskThroughTool(t *testing.T) {
	r := setupRouter(t)
	user := registerUser(t, r, "alice@example.com")
	stubModel(t, addTaskTurns("buy milk", "Added buy milk to your list."))

	w := doJSON(t, r, http.MethodPost, "/api/"+user.ID+"/chat", user.Token, gin.H{
		"message": "add task buy milk",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp chatResponseJSON
	decodeJSON(t, w, &resp)

	assert.Equal(t, "Added buy milk to your list.", resp.Response)
	assert.NotZero(t, resp.ConversationID)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "add_task", resp.ToolCalls[0].ToolName)
	assert.Equal(t, "buy milk", resp.ToolCalls[0].Arguments["title"])
	assert.Contains(t, resp.ToolCalls[0].Result, "Task created successfully")
	assert.False(t, resp.CreatedAt.IsZero())

	// The tool really created the row.
	var task models.Task
	require.NoError(t, db.DB.Where("user_id = ?", user.ID).First(&task).Error)
	assert.Equal(t, "buy milk", task.Title)
	assert.False(t, task.Completed)

	// Both turns were persisted.
	var count int64
	require.NoError(t, db.DB.Model(&models.Message{}).Where("conversation_id = ?", resp.ConversationID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestChatHistory(t *testing.T) {
	r := setupRouter(t)
	user := registerUser(t, r, "alice@example.com")

	// Before any chat: null conversation, empty messages.
	w := doJSON(t, r, http.MethodGet, "/api/"+user.ID+"/chat/history", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var empty struct {
		ConversationID *uint         `json:"conversation_id"`
		Messages       []interface{} `json:"messages"`
	}
	decodeJSON(t, w, &empty)
	assert.Nil(t, empty.ConversationID)
	assert.Empty(t, empty.Messages)

	stubModel(t, addTaskTurns("buy milk", "Done."))

	w = doJSON(t, r, http.MethodPost, "/api/"+user.ID+"/chat", user.Token, gin.H{
		"message": "add task buy milk",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var chat chatResponseJSON
	decodeJSON(t, w, &chat)

	w = doJSON(t, r, http.MethodGet, "/api/"+user.ID+"/chat/history", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history struct {
		ConversationID uint `json:"conversation_id"`
		Messages       []struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				ToolName string `json:"tool_name"`
			} `json:"tool_calls"`
		} `json:"messages"`
	}
	decodeJSON(t, w, &history)

	assert.Equal(t, chat.ConversationID, history.ConversationID)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "user", history.Messages[0].Role)
	assert.Equal(t, "add task buy milk", history.Messages[0].Content)
	assert.Equal(t, "assistant", history.Messages[1].Role)
	assert.Equal(t, "Done.", history.Messages[1].Content)
	require.Len(t, history.Messages[1].ToolCalls, 1)
	assert.Equal(t, "add_task", history.Messages[1].ToolCalls[0].ToolName)
}

func TestChatReusesMostRecentConversation(t *testing.T) {
	r := setupRouter(t)
	user := registerUser(t, r, "alice@example.com")

	stubModel(t, []modelTurn{
		{content: "Hello!"},
		{content: "Hello again!"},
	})

	w := doJSON(t, r, http.MethodPost, "/api/"+user.ID+"/chat", user.Token, gin.H{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	var first chatResponseJSON
	decodeJSON(t, w, &first)

	// Second message without an explicit id lands in the same conversation.
	w = doJSON(t, r, http.MethodPost, "/api/"+user.ID+"/chat", user.Token, gin.H{"message": "hi again"})
	require.Equal(t, http.StatusOK, w.Code)

	var second chatResponseJSON
	decodeJSON(t, w, &second)

	assert.Equal(t, first.ConversationID, second.ConversationID)

	var convCount int64
	require.NoError(t, db.DB.Model(&models.Conversation{}).Where("user_id = ?", user.ID).Count(&convCount).Error)
	assert.EqualValues(t, 1, convCount)
}

func TestChatIgnoresForeignConversationID(t *testing.T) {
	r := setupRouter(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")

	stubModel(t, []modelTurn{
		{content: "Hi Alice"},
		{content: "Hi Bob"},
	})

	w := doJSON(t, r, http.MethodPost, "/api/"+alice.ID+"/chat", alice.Token, gin.H{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	var aliceChat chatResponseJSON
	decodeJSON(t, w, &aliceChat)

	// Bob naming Alice's conversation id gets his own conversation instead.
	w = doJSON(t, r, http.MethodPost, "/api/"+bob.ID+"/chat", bob.Token, gin.H{
		"message":         "hi",
		"conversation_id": aliceChat.ConversationID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var bobChat chatResponseJSON
	decodeJSON(t, w, &bobChat)
	assert.NotEqual(t, aliceChat.ConversationID, bobChat.ConversationID)
}

func TestChatForbiddenForOtherUser(t *testing.T) {
	r := setupRouter(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/"+alice.ID+"/chat", bob.Token, gin.H{"message": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChatModelFailureKeepsUserTurn(t *testing.T) {
	r := setupRouter(t)
	user := registerUser(t, r, "alice@example.com")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	handlers.InitChatClient(llm.NewClient(srv.URL, "test-key", "test-model"))

	w := doJSON(t, r, http.MethodPost, "/api/"+user.ID+"/chat", user.Token, gin.H{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var envelope struct {
		Error string `json:"error"`
	}
	decodeJSON(t, w, &envelope)
	assert.Equal(t, "internal_error", envelope.Error)

	// The user's turn was committed before the model call, so it survives.
	var messages []models.Message
	require.NoError(t, db.DB.Where("user_id = ?", user.ID).Find(&messages).Error)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
}
