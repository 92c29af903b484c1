package chat

import "time"

// Conversation is the unique thread between a requester and a service
// provider for one service request. At most one row exists per distinct
// (RequestID, ProviderID, UserID) triple; the store enforces this with a
// unique index and concurrent creators converge through get-or-create.
type Conversation struct {
	ID            string    `db:"id"`
	RequestID     string    `db:"request_id"`
	ProviderID    string    `db:"provider_id"`
	UserID        string    `db:"user_id"`
	CreatedAt     time.Time `db:"created_at"`
	LastMessageAt time.Time `db:"last_message_at"`
}

// ConversationSummary annotates a conversation with its latest quotation,
// resolved in a single batched lookup when listing.
type ConversationSummary struct {
	Conversation
	LatestQuotation *int64
}

// RoleOf resolves the caller's role relative to the conversation given the
// owning user of the provider side. The caller must own exactly one side:
// owning both or neither is a permission failure, not a role.
func (c Conversation) RoleOf(callerID, providerOwnerID string) (SenderType, error) {
	if callerID == "" {
		return "", ErrAuthenticationRequired
	}
	isRequester := callerID == c.UserID
	isOwner := providerOwnerID != "" && callerID == providerOwnerID
	switch {
	case isRequester && !isOwner:
		return SenderUser, nil
	case isOwner && !isRequester:
		return SenderProvider, nil
	default:
		return "", ErrPermissionDenied
	}
}
