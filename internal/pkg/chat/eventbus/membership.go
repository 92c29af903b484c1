package eventbus

import (
	"context"
	"errors"
	"sync"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
)

// ConversationGetter is the slice of the chat repository the membership
// check needs.
type ConversationGetter interface {
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)
}

// ProviderOwnerGetter resolves the owning user of a provider side.
type ProviderOwnerGetter interface {
	ProviderOwner(ctx context.Context, providerID string) (string, error)
}

// Membership answers whether one session's user is a party to a
// conversation: its requester, or the owner of its provider side. The feed
// carries every message row to every session, so this check is what keeps
// toast and push content inside the conversation's two parties.
//
// Verdicts are memoized for the session lifetime; a conversation's triple
// never changes after creation, so membership cannot either.
type Membership struct {
	userID string
	convs  ConversationGetter
	owners ProviderOwnerGetter

	mu   sync.Mutex
	memo map[string]bool
}

func NewMembership(userID string, convs ConversationGetter, owners ProviderOwnerGetter) *Membership {
	return &Membership{
		userID: userID,
		convs:  convs,
		owners: owners,
		memo:   make(map[string]bool),
	}
}

// Participant reports whether the session's user is a party to the
// conversation. A conversation that no longer exists is nobody's.
func (m *Membership) Participant(ctx context.Context, conversationID string) (bool, error) {
	m.mu.Lock()
	if v, ok := m.memo[conversationID]; ok {
		m.mu.Unlock()
		return v, nil
	}
	m.mu.Unlock()

	conv, err := m.convs.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	in := conv.UserID == m.userID
	if !in {
		owner, err := m.owners.ProviderOwner(ctx, conv.ProviderID)
		if err != nil {
			return false, err
		}
		in = owner != "" && owner == m.userID
	}

	m.mu.Lock()
	m.memo[conversationID] = in
	m.mu.Unlock()
	return in, nil
}
