package usecase

import (
	"context"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// DeleteRequestInput identifies the request to delete and the caller.
type DeleteRequestInput struct {
	RequestID string
	CallerID  string
}

// DeleteRequestUseCase removes a service request together with its
// conversations and messages. The atomic server-side cascade is attempted
// first; when it fails, the explicit multi-step fallback runs (messages,
// then conversations, then the request) before final failure is reported.
type DeleteRequestUseCase struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func NewDeleteRequestUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *DeleteRequestUseCase {
	return &DeleteRequestUseCase{Repo: repo, Identity: identity}
}

func (uc *DeleteRequestUseCase) Execute(ctx context.Context, in DeleteRequestInput) error {
	if in.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}
	if in.CallerID == "" {
		return chat.ErrAuthenticationRequired
	}

	owner, err := uc.Identity.RequestOwner(ctx, in.RequestID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if owner == "" {
		return chat.ErrNotFound
	}
	if owner != in.CallerID {
		return chat.ErrPermissionDenied
	}

	if err := uc.Repo.DeleteRequestCascade(ctx, in.RequestID); err == nil {
		return nil
	}

	if err := uc.Repo.DeleteMessagesForRequest(ctx, in.RequestID); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrCascadeDeleteFailed, err)
	}
	if err := uc.Repo.DeleteConversationsForRequest(ctx, in.RequestID); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrCascadeDeleteFailed, err)
	}
	if err := uc.Repo.DeleteRequest(ctx, in.RequestID); err != nil {
		return fmt.Errorf("%w: %v", chat.ErrCascadeDeleteFailed, err)
	}
	return nil
}
