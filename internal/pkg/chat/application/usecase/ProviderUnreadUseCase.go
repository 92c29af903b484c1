package usecase

import (
	"context"
	"fmt"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	identityport "hopaba-chat/internal/repository/port"
)

// UnreadResolver computes the provider-wide unread total for every provider
// identity owned by a user. Both implementations must agree on the result;
// the stepwise form exists purely for robustness against store-side join
// failures, not as an alternate business rule.
type UnreadResolver interface {
	Resolve(ctx context.Context, ownerUserID string) (int64, error)
}

// JoinUnreadResolver is the primary path: one relational traversal from
// provider ownership through conversations to unread requester messages.
type JoinUnreadResolver struct {
	Repo repository.ChatRepository
}

func (r JoinUnreadResolver) Resolve(ctx context.Context, ownerUserID string) (int64, error) {
	return r.Repo.CountProviderUnread(ctx, ownerUserID)
}

// StepwiseUnreadResolver resolves the same total in three explicit steps:
// provider ids owned by the caller, conversations for those providers, then
// unread requester messages across those conversations.
type StepwiseUnreadResolver struct {
	Repo     repository.ChatRepository
	Identity identityport.IdentityRepository
}

func (r StepwiseUnreadResolver) Resolve(ctx context.Context, ownerUserID string) (int64, error) {
	providerIDs, err := r.Identity.ProviderIDsOwnedBy(ctx, ownerUserID)
	if err != nil {
		return 0, err
	}
	if len(providerIDs) == 0 {
		return 0, nil
	}
	convIDs, err := r.Repo.ConversationIDsForProviders(ctx, providerIDs)
	if err != nil {
		return 0, err
	}
	if len(convIDs) == 0 {
		return 0, nil
	}
	return r.Repo.CountUnreadForConversations(ctx, convIDs, chat.SenderUser)
}

// ProviderUnreadUseCase tries the primary resolver and falls back to the
// stepwise one when the traversal fails.
type ProviderUnreadUseCase struct {
	Primary  UnreadResolver
	Fallback UnreadResolver
}

func NewProviderUnreadUseCase(repo repository.ChatRepository, identity identityport.IdentityRepository) *ProviderUnreadUseCase {
	return &ProviderUnreadUseCase{
		Primary:  JoinUnreadResolver{Repo: repo},
		Fallback: StepwiseUnreadResolver{Repo: repo, Identity: identity},
	}
}

func (uc *ProviderUnreadUseCase) Execute(ctx context.Context, ownerUserID string) (int64, error) {
	if ownerUserID == "" {
		return 0, chat.ErrAuthenticationRequired
	}
	n, err := uc.Primary.Resolve(ctx, ownerUserID)
	if err == nil {
		return n, nil
	}
	n, ferr := uc.Fallback.Resolve(ctx, ownerUserID)
	if ferr != nil {
		return 0, fmt.Errorf("%w: primary: %v; fallback: %v", ErrPersistence, err, ferr)
	}
	return n, nil
}
