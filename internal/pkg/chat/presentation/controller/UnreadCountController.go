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

// UnreadCountController serves the per-conversation unread badge. A batched
// form accepts ?ids=a,b,c on the collection route and resolves caller roles
// with one identity round-trip instead of one per conversation.
type UnreadCountController struct {
	UC *usecase.UnreadCountUseCase
}

func NewUnreadCountController(pool *pgxpool.Pool) *UnreadCountController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &UnreadCountController{UC: usecase.NewUnreadCountUseCase(repo, identity)}
}

func (h *UnreadCountController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		n, err := h.UC.Execute(ctx, conversationID, middleware.UserID(c))
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID, "unread": n})
	}
}

// HandleBatch resolves unread counts for a set of conversations in grouped
// queries.
func (h *UnreadCountController) HandleBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := c.QueryArray("ids")
		if len(ids) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		counts, err := h.UC.ExecuteBatch(ctx, ids, middleware.UserID(c))
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": counts})
	}
}
