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

// RequestConversationsController lists every provider conversation attached
// to one service request, used by a requester reviewing responses.
type RequestConversationsController struct {
	UC *usecase.ListRequestConversationsUseCase
}

func NewRequestConversationsController(pool *pgxpool.Pool) *RequestConversationsController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &RequestConversationsController{UC: usecase.NewListRequestConversationsUseCase(repo, identity)}
}

func (h *RequestConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("requestId")
		if requestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "requestId is required"})
			return
		}
		callerID := middleware.UserID(c)
		if callerID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		summaries, err := h.UC.Execute(ctx, usecase.ListRequestConversationsInput{
			RequestID: requestID,
			CallerID:  callerID,
		})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": toSummaryPayloads(summaries)})
	}
}
