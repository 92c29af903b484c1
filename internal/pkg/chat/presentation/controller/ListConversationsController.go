package controller

import (
	"context"
	"net/http"
	"time"

	"hopaba-chat/internal/middleware"
	chat "hopaba-chat/internal/pkg/chat/application/domain"
	"hopaba-chat/internal/pkg/chat/application/usecase"
	"hopaba-chat/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListConversationsController returns every conversation the caller takes
// part in, on either side.
type ListConversationsController struct {
	UC *usecase.ListConversationsUseCase
}

func NewListConversationsController(pool *pgxpool.Pool) *ListConversationsController {
	repo := adapter.NewPgChatRepository(pool)
	return &ListConversationsController{UC: usecase.NewListConversationsUseCase(repo)}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		summaries, err := h.UC.Execute(ctx, usecase.ListConversationsInput{UserID: middleware.UserID(c)})
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": toSummaryPayloads(summaries)})
	}
}

type conversationSummaryPayload struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	ProviderID      string    `json:"provider_id"`
	UserID          string    `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	LastMessageAt   time.Time `json:"last_message_at"`
	LatestQuotation *int64    `json:"latest_quotation,omitempty"`
}

func toSummaryPayloads(summaries []chat.ConversationSummary) []conversationSummaryPayload {
	out := make([]conversationSummaryPayload, len(summaries))
	for i, s := range summaries {
		out[i] = conversationSummaryPayload{
			ID:              s.ID,
			RequestID:       s.RequestID,
			ProviderID:      s.ProviderID,
			UserID:          s.UserID,
			CreatedAt:       s.CreatedAt,
			LastMessageAt:   s.LastMessageAt,
			LatestQuotation: s.LatestQuotation,
		}
	}
	return out
}
