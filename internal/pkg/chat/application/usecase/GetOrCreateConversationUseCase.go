package usecase

import (
	"context"
	"fmt"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// GetOrCreateConversationInput identifies the conversation triple plus the
// authenticated caller on whose behalf the lookup runs.
type GetOrCreateConversationInput struct {
	RequestID  string
	ProviderID string
	UserID     string
	CallerID   string
}

// GetOrCreateConversationUseCase resolves the single conversation row for a
// (request, provider, user) triple, creating it on first contact. Concurrent
// callers converge: the insert is conflict-tolerant and a lost race falls
// back to re-reading the winner's row.
type GetOrCreateConversationUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewGetOrCreateConversationUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *GetOrCreateConversationUseCase {
	return &GetOrCreateConversationUseCase{Repo: repo, Identity: identity}
}

func (uc *GetOrCreateConversationUseCase) Execute(ctx context.Context, in GetOrCreateConversationInput) (*chat.Conversation, error) {
	if in.RequestID == "" || in.ProviderID == "" || in.UserID == "" {
		return nil, chat.ErrInvalidConversation
	}
	if in.CallerID == "" {
		return nil, chat.ErrAuthenticationRequired
	}

	if conv, err := uc.Repo.FindConversationByTriple(ctx, in.RequestID, in.ProviderID, in.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	} else if conv != nil {
		return conv, nil
	}

	// First contact: the caller must be the named requester or the owning
	// user of the named provider.
	if in.CallerID != in.UserID {
		owner, err := uc.Identity.ProviderOwner(ctx, in.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if owner == "" || owner != in.CallerID {
			return nil, chat.ErrPermissionDenied
		}
	}

	now := time.Now().UTC()
	id, err := uc.Repo.CreateConversation(ctx, chat.Conversation{
		RequestID:  in.RequestID,
		ProviderID: in.ProviderID,
		UserID:     in.UserID,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if id == "" {
		// lost the insert race; the unique triple guarantees the re-read
		// resolves to the winner's row
		conv, err := uc.Repo.FindConversationByTriple(ctx, in.RequestID, in.ProviderID, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if conv == nil {
			return nil, chat.ErrNotFound
		}
		return conv, nil
	}

	return &chat.Conversation{
		ID:            id,
		RequestID:     in.RequestID,
		ProviderID:    in.ProviderID,
		UserID:        in.UserID,
		CreatedAt:     now,
		LastMessageAt: now,
	}, nil
}
