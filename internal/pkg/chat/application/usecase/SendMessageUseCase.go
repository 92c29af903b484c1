package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
// Quotation fields are optional; validation and defaults live in
// chat.NewMessage to preserve domain integrity.
type SendMessageInput struct {
	ConversationID    string
	SenderID          string
	SenderType        chat.SenderType
	Content           string
	Attachments       []string
	QuotationPrice    *int64
	QuotationImages   []string
	DeliveryAvailable bool
	PricingType       chat.PricingType
	WholesalePrice    *int64
	NegotiablePrice   *int64
}

// SendMessageUseCase validates, authorizes by role and persists a message,
// then bumps the conversation's last activity watermark. The caller awaits
// the write; local caches are never optimistically mutated — the real-time
// feed converges state for both parties.
type SendMessageUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewSendMessageUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Identity: identity}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.SenderID == "" {
		return nil, chat.ErrInvalidConversation
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	owner, err := uc.Identity.ProviderOwner(ctx, conv.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	role, err := conv.RoleOf(in.SenderID, owner)
	if err != nil {
		return nil, err
	}
	if role != in.SenderType {
		return nil, chat.ErrRoleMismatch
	}

	msg, err := chat.NewMessage(chat.Message{
		ConversationID:    in.ConversationID,
		SenderID:          in.SenderID,
		SenderType:        in.SenderType,
		Content:           in.Content,
		Attachments:       in.Attachments,
		QuotationPrice:    in.QuotationPrice,
		QuotationImages:   in.QuotationImages,
		DeliveryAvailable: in.DeliveryAvailable,
		PricingType:       in.PricingType,
		WholesalePrice:    in.WholesalePrice,
		NegotiablePrice:   in.NegotiablePrice,
	})
	if err != nil {
		return nil, err
	}

	// Persist letting DB generate the ID; no retry on the write path
	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	if err := uc.Repo.TouchLastMessageAt(ctx, conv.ID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
