package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskwise-dev/taskwise/db"
	"github.com/taskwise-dev/taskwise/internal/agent"
	"github.com/taskwise-dev/taskwise/internal/httperr"
	"github.com/taskwise-dev/taskwise/internal/llm"
	"github.com/taskwise-dev/taskwise/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// History window sent to the model on each turn.
const historyLimit = 10

var chatClient *llm.Client

// InitChatClient wires the completion-service client. Must be called before
// the chat routes are served.
func InitChatClient(client *llm.Client) {
	chatClient = client
}

type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID *uint  `json:"conversation_id"`
}

type ChatResponse struct {
	Response       string                 `json:"response"`
	ConversationID uint                   `json:"conversation_id"`
	ToolCalls      []agent.ToolInvocation `json:"tool_calls"`
	CreatedAt      time.Time              `json:"created_at"`
}

type MessageResponse struct {
	ID        uint                   `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	ToolCalls []agent.ToolInvocation `json:"tool_calls"`
	CreatedAt time.Time              `json:"created_at"`
}

func Chat(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	var req ChatRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		httperr.Validation(ctx, "Invalid request", map[string]interface{}{"reason": err.Error()})
		return
	}

	conversation, err := resolveConversation(userID, req.ConversationID)

	if err != nil {
		log.Printf("Failed to resolve conversation: %v", err)
		httperr.Internal(ctx, "Failed to resolve conversation")
		return
	}

	history, err := loadHistory(conversation.ID, userID)

	if err != nil {
		log.Printf("Failed to load history: %v", err)
		httperr.Internal(ctx, "Failed to load conversation history")
		return
	}

	// Persist the user turn before calling the model so history survives a
	// completion-service failure.
	userMessage := models.Message{
		ConversationID: conversation.ID,
		UserID:         userID,
		Role:           models.RoleUser,
		Content:        req.Message,
	}

	if err := db.DB.Create(&userMessage).Error; err != nil {
		log.Printf("Failed to store user message: %v", err)
		httperr.Internal(ctx, "Failed to store message")
		return
	}

	agentCtx := &agent.Context{UserID: userID, DB: db.DB}

	result, err := agent.Run(ctx.Request.Context(), chatClient, agentCtx, history, req.Message)

	if err != nil {
		log.Printf("Agent run failed: %v", err)
		httperr.Internal(ctx, "AI agent error: "+err.Error())
		return
	}

	var toolCallsJSON datatypes.JSON

	if len(result.ToolCalls) > 0 {
		raw, err := json.Marshal(result.ToolCalls)
		if err != nil {
			log.Printf("Failed to serialize tool calls: %v", err)
		} else {
			toolCallsJSON = raw
		}
	}

	assistantMessage := models.Message{
		ConversationID: conversation.ID,
		UserID:         userID,
		Role:           models.RoleAssistant,
		Content:        result.Reply,
		ToolCalls:      toolCallsJSON,
	}

	if err := db.DB.Create(&assistantMessage).Error; err != nil {
		log.Printf("Failed to store assistant message: %v", err)
		httperr.Internal(ctx, "Failed to store message")
		return
	}

	if err := db.DB.Model(conversation).Update("updated_at", time.Now()).Error; err != nil {
		log.Printf("Failed to bump conversation timestamp: %v", err)
	}

	toolCalls := result.ToolCalls

	if toolCalls == nil {
		toolCalls = []agent.ToolInvocation{}
	}

	ctx.JSON(http.StatusOK, ChatResponse{
		Response:       result.Reply,
		ConversationID: conversation.ID,
		ToolCalls:      toolCalls,
		CreatedAt:      assistantMessage.CreatedAt,
	})
}

func ChatHistory(ctx *gin.Context) {
	userID, ok := authorizeOwner(ctx)

	if !ok {
		return
	}

	var conversation models.Conversation

	err := db.DB.Where("user_id = ?", userID).Order("updated_at DESC").First(&conversation).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusOK, gin.H{
				"conversation_id": nil,
				"messages":        []MessageResponse{},
			})
			return
		}
		log.Printf("Failed to fetch conversation: %v", err)
		httperr.Internal(ctx, "Failed to retrieve conversation")
		return
	}

	var messages []models.Message

	err = db.DB.Where("conversation_id = ? AND user_id = ?", conversation.ID, userID).
		Order("created_at ASC").
		Find(&messages).Error

	if err != nil {
		log.Printf("Failed to fetch messages: %v", err)
		httperr.Internal(ctx, "Failed to retrieve messages")
		return
	}

	response := make([]MessageResponse, 0, len(messages))

	for _, msg := range messages {
		var toolCalls []agent.ToolInvocation

		if len(msg.ToolCalls) > 0 {
			if err := json.Unmarshal(msg.ToolCalls, &toolCalls); err != nil {
				toolCalls = nil
			}
		}

		response = append(response, MessageResponse{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: toolCalls,
			CreatedAt: msg.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"conversation_id": conversation.ID,
		"messages":        response,
	})
}

// resolveConversation prefers an explicit conversation owned by the caller,
// then the most recently updated one, then creates a fresh conversation.
func resolveConversation(userID string, conversationID *uint) (*models.Conversation, error) {
	var conversation models.Conversation

	if conversationID != nil {
		err := db.DB.Where("id = ? AND user_id = ?", *conversationID, userID).First(&conversation).Error

		if err == nil {
			return &conversation, nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := db.DB.Where("user_id = ?", userID).Order("updated_at DESC").First(&conversation).Error

	if err == nil {
		return &conversation, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conversation = models.Conversation{UserID: userID}

	if err := db.DB.Create(&conversation).Error; err != nil {
		return nil, err
	}

	return &conversation, nil
}

// loadHistory returns the last N turns oldest-first, reduced to role/content.
func loadHistory(conversationID uint, userID string) ([]llm.Message, error) {
	var messages []models.Message

	err := db.DB.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(messages))

	for i := len(messages) - 1; i >= 0; i-- {
		history = append(history, llm.Message{
			Role:    messages[i].Role,
			Content: messages[i].Content,
		})
	}

	return history, nil
}
