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

// DeleteRequestController cascades deletion of a service request and its
// conversations and messages.
type DeleteRequestController struct {
	UC *usecase.DeleteRequestUseCase
}

func NewDeleteRequestController(pool *pgxpool.Pool) *DeleteRequestController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &DeleteRequestController{UC: usecase.NewDeleteRequestUseCase(repo, identity)}
}

func (h *DeleteRequestController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("requestId")
		if requestID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "requestId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		err := h.UC.Execute(ctx, usecase.DeleteRequestInput{
			RequestID: requestID,
			CallerID:  middleware.UserID(c),
		})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
