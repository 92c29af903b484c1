package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// MarkMessagesReadInput identifies the conversation and the role the caller
// is reading as.
type MarkMessagesReadInput struct {
	ConversationID string
	ReaderID       string
	ReaderRole     chat.SenderType
}

// MarkMessagesReadUseCase bulk-flips every unread message authored by the
// other role to read. The flag is monotonic, so repeated calls are no-ops
// once converged; the reader's own messages are never touched.
type MarkMessagesReadUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewMarkMessagesReadUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *MarkMessagesReadUseCase {
	return &MarkMessagesReadUseCase{Repo: repo, Identity: identity}
}

func (uc *MarkMessagesReadUseCase) Execute(ctx context.Context, in MarkMessagesReadInput) (int64, error) {
	if in.ConversationID == "" {
		return 0, chat.ErrInvalidConversation
	}
	if !in.ReaderRole.Valid() {
		return 0, chat.ErrRoleMismatch
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	owner, err := uc.Identity.ProviderOwner(ctx, conv.ProviderID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	role, err := conv.RoleOf(in.ReaderID, owner)
	if err != nil {
		return 0, err
	}
	if role != in.ReaderRole {
		return 0, chat.ErrRoleMismatch
	}

	n, err := uc.Repo.MarkMessagesRead(ctx, in.ConversationID, in.ReaderRole.Other())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
