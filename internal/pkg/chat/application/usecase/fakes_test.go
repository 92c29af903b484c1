package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
)

// fakeChatRepo is an in-memory ChatRepository. It shares the provider
// ownership map with fakeIdentity so the join-based and stepwise unread
// traversals compute over the same data.
type fakeChatRepo struct {
	mu     sync.Mutex
	convs  map[string]chat.Conversation
	msgs   map[string][]chat.Message
	owners map[string]string // providerID -> owning user id

	nextConv int
	nextMsg  int

	createErr      error
	createCalls    int
	joinErr        error // injected failure for the provider-wide join
	cascadeErr     error
	deleteMsgsErr  error
	deleteConvsErr error
	deleteReqErr   error
	cascadeCalls   int
	fallbackSteps  []string
}

// fakeIdentity resolves ownership from the maps shared with fakeChatRepo.
type fakeIdentity struct {
	mu       sync.Mutex
	owners   map[string]string // providerID -> owner user id
	requests map[string]string // requestID -> opening user id
	names    map[string]string // userID -> display name

	ownerErr error
}

func newFakes() (*fakeChatRepo, *fakeIdentity) {
	owners := make(map[string]string)
	repo := &fakeChatRepo{
		convs:  make(map[string]chat.Conversation),
		msgs:   make(map[string][]chat.Message),
		owners: owners,
	}
	identity := &fakeIdentity{
		owners:   owners,
		requests: make(map[string]string),
		names:    make(map[string]string),
	}
	return repo, identity
}

func (f *fakeChatRepo) addConversation(c chat.Conversation) chat.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		f.nextConv++
		c.ID = fmt.Sprintf("conv-%d", f.nextConv)
	}
	f.convs[c.ID] = c
	return c
}

func (f *fakeChatRepo) addMessage(m chat.Message) chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		f.nextMsg++
		m.ID = fmt.Sprintf("msg-%d", f.nextMsg)
	}
	f.msgs[m.ConversationID] = append(f.msgs[m.ConversationID], m)
	return m
}

// ===================== conversations =====================

func (f *fakeChatRepo) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return &c, nil
}

func (f *fakeChatRepo) FindConversationByTriple(ctx context.Context, requestID, providerID, userID string) (*chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.convs {
		if c.RequestID == requestID && c.ProviderID == providerID && c.UserID == userID {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeChatRepo) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	for _, existing := range f.convs {
		if existing.RequestID == c.RequestID && existing.ProviderID == c.ProviderID && existing.UserID == c.UserID {
			// conflict on the unique triple, mirror ON CONFLICT DO NOTHING
			return "", nil
		}
	}
	f.nextConv++
	c.ID = fmt.Sprintf("conv-%d", f.nextConv)
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = c.CreatedAt
	}
	f.convs[c.ID] = c
	return c.ID, nil
}

func (f *fakeChatRepo) ListConversationsAsRequester(ctx context.Context, userID string) ([]chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Conversation
	for _, c := range f.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) ListConversationsAsProviderOwner(ctx context.Context, userID string) ([]chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Conversation
	for _, c := range f.convs {
		if f.owners[c.ProviderID] == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) ListConversationsByRequest(ctx context.Context, requestID string) ([]chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Conversation
	for _, c := range f.convs {
		if c.RequestID == requestID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) GetConversationsByIDs(ctx context.Context, ids []string) ([]chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Conversation
	for _, id := range ids {
		if c, ok := f.convs[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) TouchLastMessageAt(ctx context.Context, conversationID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.convs[conversationID]
	if !ok {
		return chat.ErrNotFound
	}
	if at.After(c.LastMessageAt) {
		c.LastMessageAt = at
		f.convs[conversationID] = c
	}
	return nil
}

// ===================== messages =====================

func (f *fakeChatRepo) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsg++
	m.ID = fmt.Sprintf("msg-%d", f.nextMsg)
	f.msgs[m.ConversationID] = append(f.msgs[m.ConversationID], m)
	return m.ID, nil
}

func (f *fakeChatRepo) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.msgs[conversationID]
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	out := make([]chat.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeChatRepo) MarkMessagesRead(ctx context.Context, conversationID string, senderType chat.SenderType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	msgs := f.msgs[conversationID]
	for i := range msgs {
		if msgs[i].SenderType == senderType && !msgs[i].Read {
			msgs[i].Read = true
			n++
		}
	}
	return n, nil
}

// ===================== aggregates =====================

func (f *fakeChatRepo) LatestQuotations(ctx context.Context, conversationIDs []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64)
	for _, id := range conversationIDs {
		for _, m := range f.msgs[id] {
			if m.HasQuotation() {
				// messages append in order; last quotation wins
				out[id] = *m.QuotationPrice
			}
		}
	}
	return out, nil
}

func (f *fakeChatRepo) CountUnread(ctx context.Context, conversationID string, senderType chat.SenderType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countUnreadLocked(conversationID, senderType), nil
}

func (f *fakeChatRepo) countUnreadLocked(conversationID string, senderType chat.SenderType) int64 {
	var n int64
	for _, m := range f.msgs[conversationID] {
		if m.SenderType == senderType && !m.Read {
			n++
		}
	}
	return n
}

func (f *fakeChatRepo) CountUnreadBatch(ctx context.Context, conversationIDs []string, senderType chat.SenderType) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64, len(conversationIDs))
	for _, id := range conversationIDs {
		out[id] = f.countUnreadLocked(id, senderType)
	}
	return out, nil
}

func (f *fakeChatRepo) CountProviderUnread(ctx context.Context, ownerUserID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return 0, f.joinErr
	}
	var n int64
	for _, c := range f.convs {
		if f.owners[c.ProviderID] == ownerUserID {
			n += f.countUnreadLocked(c.ID, chat.SenderUser)
		}
	}
	return n, nil
}

func (f *fakeChatRepo) ConversationIDsForProviders(ctx context.Context, providerIDs []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]bool, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = true
	}
	var out []string
	for _, c := range f.convs {
		if wanted[c.ProviderID] {
			out = append(out, c.ID)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) CountUnreadForConversations(ctx context.Context, conversationIDs []string, senderType chat.SenderType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range conversationIDs {
		n += f.countUnreadLocked(id, senderType)
	}
	return n, nil
}

// ===================== cascade delete =====================

func (f *fakeChatRepo) DeleteRequestCascade(ctx context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cascadeCalls++
	if f.cascadeErr != nil {
		return f.cascadeErr
	}
	f.deleteRequestRowsLocked(requestID)
	return nil
}

func (f *fakeChatRepo) DeleteMessagesForRequest(ctx context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteMsgsErr != nil {
		return f.deleteMsgsErr
	}
	f.fallbackSteps = append(f.fallbackSteps, "messages")
	for id, c := range f.convs {
		if c.RequestID == requestID {
			delete(f.msgs, id)
		}
	}
	return nil
}

func (f *fakeChatRepo) DeleteConversationsForRequest(ctx context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteConvsErr != nil {
		return f.deleteConvsErr
	}
	f.fallbackSteps = append(f.fallbackSteps, "conversations")
	for id, c := range f.convs {
		if c.RequestID == requestID {
			delete(f.convs, id)
		}
	}
	return nil
}

func (f *fakeChatRepo) DeleteRequest(ctx context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteReqErr != nil {
		return f.deleteReqErr
	}
	f.fallbackSteps = append(f.fallbackSteps, "request")
	return nil
}

func (f *fakeChatRepo) deleteRequestRowsLocked(requestID string) {
	for id, c := range f.convs {
		if c.RequestID == requestID {
			delete(f.msgs, id)
			delete(f.convs, id)
		}
	}
}

// ===================== identity =====================

func (f *fakeIdentity) ProviderOwner(ctx context.Context, providerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ownerErr != nil {
		return "", f.ownerErr
	}
	return f.owners[providerID], nil
}

func (f *fakeIdentity) ProviderOwners(ctx context.Context, providerIDs []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	out := make(map[string]string, len(providerIDs))
	for _, id := range providerIDs {
		if owner, ok := f.owners[id]; ok {
			out[id] = owner
		}
	}
	return out, nil
}

func (f *fakeIdentity) ProviderIDsOwnedBy(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, owner := range f.owners {
		if owner == userID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeIdentity) RequestOwner(ctx context.Context, requestID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[requestID], nil
}

func (f *fakeIdentity) DisplayName(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[userID], nil
}
