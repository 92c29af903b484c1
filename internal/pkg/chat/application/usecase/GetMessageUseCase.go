package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// GetMessageInput carries parameters to fetch messages of a conversation.
type GetMessageInput struct {
	ConversationID string
	CallerID       string
	Limit          int
	Offset         int
}

// GetMessageUseCase fetches messages for a conversation the caller is a
// party to, newest first.
type GetMessageUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewGetMessageUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo, Identity: identity}
}

func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if in.ConversationID == "" {
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
	if _, err := conv.RoleOf(in.CallerID, owner); err != nil {
		return nil, err
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
