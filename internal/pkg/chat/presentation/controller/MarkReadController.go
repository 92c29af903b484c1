package controller

import (
	"context"
	"net/http"
	"time"

	"hopaba-chat/internal/middleware"
	chat "hopaba-chat/internal/pkg/chat/application/domain"
	"hopaba-chat/internal/pkg/chat/application/usecase"
	"hopaba-chat/internal/pkg/chat/persistence/repository/adapter"
	identityadapter "hopaba-chat/internal/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MarkReadController flips the other side's messages to read. The operation
// is idempotent, so retries from flaky clients are harmless.
type MarkReadController struct {
	UC *usecase.MarkMessagesReadUseCase
}

func NewMarkReadController(pool *pgxpool.Pool) *MarkReadController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &MarkReadController{UC: usecase.NewMarkMessagesReadUseCase(repo, identity)}
}

type markReadRequest struct {
	ReaderRole string `json:"reader_role" binding:"required"`
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		n, err := h.UC.Execute(ctx, usecase.MarkMessagesReadInput{
			ConversationID: conversationID,
			ReaderID:       middleware.UserID(c),
			ReaderRole:     chat.SenderType(req.ReaderRole),
		})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"marked_read": n})
	}
}
