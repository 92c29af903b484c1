package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// UnreadCountUseCase computes unread badges. A message counts as unread for
// the caller when it was authored by the other role and its read flag is
// still false.
type UnreadCountUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewUnreadCountUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *UnreadCountUseCase {
	return &UnreadCountUseCase{Repo: repo, Identity: identity}
}

// Execute returns the unread count of a single conversation for the caller.
func (uc *UnreadCountUseCase) Execute(ctx context.Context, conversationID, callerID string) (int64, error) {
	if conversationID == "" {
		return 0, chat.ErrInvalidConversation
	}
	conv, err := uc.Repo.GetConversation(ctx, conversationID)
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
	role, err := conv.RoleOf(callerID, owner)
	if err != nil {
		return 0, err
	}
	n, err := uc.Repo.CountUnread(ctx, conversationID, role.Other())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}

// ExecuteBatch resolves counts for many conversations with a fixed number of
// round-trips: one conversation fetch, one batched identity lookup, then one
// grouped count query per role group.
func (uc *UnreadCountUseCase) ExecuteBatch(ctx context.Context, conversationIDs []string, callerID string) (map[string]int64, error) {
	if callerID == "" {
		return nil, chat.ErrAuthenticationRequired
	}
	if len(conversationIDs) == 0 {
		return map[string]int64{}, nil
	}

	convs, err := uc.Repo.GetConversationsByIDs(ctx, conversationIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	providerIDs := make([]string, 0, len(convs))
	for _, c := range convs {
		providerIDs = append(providerIDs, c.ProviderID)
	}
	owners, err := uc.Identity.ProviderOwners(ctx, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Group conversations by the caller's role in each; conversations the
	// caller is no party to are skipped rather than failing the whole batch.
	var asUser, asProvider []string
	for _, c := range convs {
		role, err := c.RoleOf(callerID, owners[c.ProviderID])
		if err != nil {
			continue
		}
		if role == chat.SenderUser {
			asUser = append(asUser, c.ID)
		} else {
			asProvider = append(asProvider, c.ID)
		}
	}

	counts := make(map[string]int64, len(conversationIDs))
	if len(asUser) > 0 {
		m, err := uc.Repo.CountUnreadBatch(ctx, asUser, chat.SenderProvider)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		for id, n := range m {
			counts[id] = n
		}
	}
	if len(asProvider) > 0 {
		m, err := uc.Repo.CountUnreadBatch(ctx, asProvider, chat.SenderUser)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		for id, n := range m {
			counts[id] = n
		}
	}
	return counts, nil
}
