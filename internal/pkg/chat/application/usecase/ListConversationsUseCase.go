package usecase

import (
	"context"
	"fmt"
	"sort"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
	repository "hopaba-chat/internal/pkg/chat/persistence/repository/port"
)

// ListConversationsInput wraps the user whose conversations are listed.
type ListConversationsInput struct {
	UserID string
}

// ListConversationsUseCase unions the "user is requester" and "user owns the
// provider" result sets, deduplicates by id, sorts by last activity and
// annotates each summary with its latest quotation via one batched lookup.
type ListConversationsUseCase struct {
	Repo repository.ChatRepository
}

func NewListConversationsUseCase(repo repository.ChatRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]chat.ConversationSummary, error) {
	if in.UserID == "" {
		return nil, chat.ErrAuthenticationRequired
	}

	asRequester, err := uc.Repo.ListConversationsAsRequester(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	asOwner, err := uc.Repo.ListConversationsAsProviderOwner(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	seen := make(map[string]struct{}, len(asRequester)+len(asOwner))
	merged := make([]chat.Conversation, 0, len(asRequester)+len(asOwner))
	for _, c := range append(asRequester, asOwner...) {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].LastMessageAt.After(merged[j].LastMessageAt)
	})

	return uc.annotate(ctx, merged)
}

// annotate attaches latest quotations to the conversations in one query.
func (uc *ListConversationsUseCase) annotate(ctx context.Context, convs []chat.Conversation) ([]chat.ConversationSummary, error) {
	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	quotes, err := uc.Repo.LatestQuotations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	summaries := make([]chat.ConversationSummary, len(convs))
	for i, c := range convs {
		summaries[i] = chat.ConversationSummary{Conversation: c}
		if q, ok := quotes[c.ID]; ok {
			price := q
			summaries[i].LatestQuotation = &price
		}
	}
	return summaries, nil
}
