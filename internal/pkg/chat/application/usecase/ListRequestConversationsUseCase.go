package usecase

import (
	"context"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// ListRequestConversationsInput scopes the listing to one service request,
// used by a requester reviewing all provider responses.
type ListRequestConversationsInput struct {
	RequestID string
	CallerID  string
}

// ListRequestConversationsUseCase is the single-sided variant of listing:
// every provider conversation attached to one request, newest activity first,
// annotated with latest quotations in one batched lookup. Only the user who
// opened the request may enumerate its conversations.
type ListRequestConversationsUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewListRequestConversationsUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *ListRequestConversationsUseCase {
	return &ListRequestConversationsUseCase{Repo: repo, Identity: identity}
}

func (uc *ListRequestConversationsUseCase) Execute(ctx context.Context, in ListRequestConversationsInput) ([]chat.ConversationSummary, error) {
	if in.RequestID == "" {
		return nil, fmt.Errorf("request_id is required")
	}
	if in.CallerID == "" {
		return nil, chat.ErrAuthenticationRequired
	}

	owner, err := uc.Identity.RequestOwner(ctx, in.RequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if owner == "" {
		return nil, chat.ErrNotFound
	}
	if owner != in.CallerID {
		return nil, chat.ErrPermissionDenied
	}

	convs, err := uc.Repo.ListConversationsByRequest(ctx, in.RequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	lister := ListConversationsUseCase{Repo: uc.Repo}
	return lister.annotate(ctx, convs)
}
