package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hopaba-chat/internal/middleware"
	"hopaba-chat/internal/pkg/chat/application/usecase"
	"hopaba-chat/internal/pkg/chat/persistence/repository/adapter"
	identityadapter "hopaba-chat/internal/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GetMessageController handles fetching messages by conversation ID (one
// controller per endpoint).
type GetMessageController struct {
	UC *usecase.GetMessageUseCase
}

func NewGetMessageController(pool *pgxpool.Pool) *GetMessageController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &GetMessageController{UC: usecase.NewGetMessageUseCase(repo, identity)}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		msgs, err := h.UC.Execute(ctx, usecase.GetMessageInput{
			ConversationID: conversationID,
			CallerID:       middleware.UserID(c),
			Limit:          limit,
			Offset:         offset,
		})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		payloads := make([]messagePayload, len(msgs))
		for i, m := range msgs {
			payloads[i] = toMessagePayload(m)
		}
		c.JSON(http.StatusOK, gin.H{"messages": payloads})
	}
}
