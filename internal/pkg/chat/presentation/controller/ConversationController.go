package controller

import (
	"context"
	"net/http"
	"time"

	"hopaba-chat/internal/middleware"
	"hopaba-chat/internal/pkg/chat/application/usecase"
	"hopaba-chat/internal/pkg/chat/persistence/repository/adapter"
	identityadapter "hopaba-chat/internal/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationController handles the get-or-create conversation endpoint
// (one controller per endpoint).
type ConversationController struct {
	UC *usecase.GetOrCreateConversationUseCase
}

func NewConversationController(pool *pgxpool.Pool) *ConversationController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &ConversationController{UC: usecase.NewGetOrCreateConversationUseCase(repo, identity)}
}

type getOrCreateConversationRequest struct {
	RequestID  string `json:"request_id" binding:"required"`
	ProviderID string `json:"provider_id" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
}

func (h *ConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req getOrCreateConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := usecase.GetOrCreateConversationInput{
			RequestID:  req.RequestID,
			ProviderID: req.ProviderID,
			UserID:     req.UserID,
			CallerID:   middleware.UserID(c),
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		conv, err := h.UC.Execute(ctx, in)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":              conv.ID,
			"request_id":      conv.RequestID,
			"provider_id":     conv.ProviderID,
			"user_id":         conv.UserID,
			"created_at":      conv.CreatedAt,
			"last_message_at": conv.LastMessageAt,
		})
	}
}
