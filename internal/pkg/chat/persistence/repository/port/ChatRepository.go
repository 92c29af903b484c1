package repository

import (
	"context"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the conversation domain.
// Implementations sit in front of a store that additionally enforces
// row-level authorization; the application layer still resolves roles itself
// so that permission failures surface as typed errors rather than empty rows.
type ChatRepository interface {
	// Conversations
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)
	FindConversationByTriple(ctx context.Context, requestID, providerID, userID string) (*chat.Conversation, error)
	// CreateConversation inserts with conflict-tolerance on the unique
	// triple. It returns "" (and no error) when a concurrent insert won the
	// race; callers re-read the triple to converge on the winner's row.
	CreateConversation(ctx context.Context, c chat.Conversation) (string, error)
	ListConversationsAsRequester(ctx context.Context, userID string) ([]chat.Conversation, error)
	ListConversationsAsProviderOwner(ctx context.Context, userID string) ([]chat.Conversation, error)
	ListConversationsByRequest(ctx context.Context, requestID string) ([]chat.Conversation, error)
	GetConversationsByIDs(ctx context.Context, ids []string) ([]chat.Conversation, error)
	TouchLastMessageAt(ctx context.Context, conversationID string, at time.Time) error

	// Messages
	SaveMessage(ctx context.Context, m chat.Message) (string, error)
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)
	// MarkMessagesRead flips read=true on every unread message in the
	// conversation authored by senderType. Returns rows affected; repeat
	// calls affect zero rows.
	MarkMessagesRead(ctx context.Context, conversationID string, senderType chat.SenderType) (int64, error)

	// Aggregates
	LatestQuotations(ctx context.Context, conversationIDs []string) (map[string]int64, error)
	CountUnread(ctx context.Context, conversationID string, senderType chat.SenderType) (int64, error)
	CountUnreadBatch(ctx context.Context, conversationIDs []string, senderType chat.SenderType) (map[string]int64, error)
	// CountProviderUnread is the primary provider-wide traversal: one join
	// from provider ownership through conversations to unread messages.
	CountProviderUnread(ctx context.Context, ownerUserID string) (int64, error)
	ConversationIDsForProviders(ctx context.Context, providerIDs []string) ([]string, error)
	CountUnreadForConversations(ctx context.Context, conversationIDs []string, senderType chat.SenderType) (int64, error)

	// Cascade delete of a service request and its dependents.
	DeleteRequestCascade(ctx context.Context, requestID string) error
	DeleteMessagesForRequest(ctx context.Context, requestID string) error
	DeleteConversationsForRequest(ctx context.Context, requestID string) error
	DeleteRequest(ctx context.Context, requestID string) error
}
