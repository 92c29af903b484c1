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

// SendMessageController handles the send-message endpoint only (one
// controller per endpoint). The write is awaited and never applied
// optimistically; the change feed converges both parties.
type SendMessageController struct {
	UC *usecase.SendMessageUseCase
}

func NewSendMessageController(pool *pgxpool.Pool) *SendMessageController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &SendMessageController{UC: usecase.NewSendMessageUseCase(repo, identity)}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	SenderType        string   `json:"sender_type" binding:"required"`
	Content           string   `json:"content"`
	Attachments       []string `json:"attachments"`
	QuotationPrice    *int64   `json:"quotation_price"`
	QuotationImages   []string `json:"quotation_images"`
	DeliveryAvailable bool     `json:"delivery_available"`
	PricingType       string   `json:"pricing_type"`
	WholesalePrice    *int64   `json:"wholesale_price"`
	NegotiablePrice   *int64   `json:"negotiable_price"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := usecase.SendMessageInput{
			ConversationID:    conversationID,
			SenderID:          middleware.UserID(c),
			SenderType:        chat.SenderType(req.SenderType),
			Content:           req.Content,
			Attachments:       req.Attachments,
			QuotationPrice:    req.QuotationPrice,
			QuotationImages:   req.QuotationImages,
			DeliveryAvailable: req.DeliveryAvailable,
			PricingType:       chat.PricingType(req.PricingType),
			WholesalePrice:    req.WholesalePrice,
			NegotiablePrice:   req.NegotiablePrice,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		msg, err := h.UC.Execute(ctx, in)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, toMessagePayload(*msg))
	}
}

type messagePayload struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	SenderID          string    `json:"sender_id"`
	SenderType        string    `json:"sender_type"`
	Content           string    `json:"content"`
	Attachments       []string  `json:"attachments,omitempty"`
	QuotationPrice    *int64    `json:"quotation_price,omitempty"`
	QuotationImages   []string  `json:"quotation_images,omitempty"`
	DeliveryAvailable bool      `json:"delivery_available"`
	PricingType       string    `json:"pricing_type,omitempty"`
	WholesalePrice    *int64    `json:"wholesale_price,omitempty"`
	NegotiablePrice   *int64    `json:"negotiable_price,omitempty"`
	Read              bool      `json:"read"`
	CreatedAt         time.Time `json:"created_at"`
}

func toMessagePayload(m chat.Message) messagePayload {
	return messagePayload{
		ID:                m.ID,
		ConversationID:    m.ConversationID,
		SenderID:          m.SenderID,
		SenderType:        string(m.SenderType),
		Content:           m.Content,
		Attachments:       m.Attachments,
		QuotationPrice:    m.QuotationPrice,
		QuotationImages:   m.QuotationImages,
		DeliveryAvailable: m.DeliveryAvailable,
		PricingType:       string(m.PricingType),
		WholesalePrice:    m.WholesalePrice,
		NegotiablePrice:   m.NegotiablePrice,
		Read:              m.Read,
		CreatedAt:         m.CreatedAt,
	}
}
