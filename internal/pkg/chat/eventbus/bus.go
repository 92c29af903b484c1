package eventbus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"hopaba-chat/internal/infrastructure/changefeed"
	"hopaba-chat/internal/pkg/notification"
)

// DefaultDebounce coalesces detail/list invalidations under message bursts:
// N rapid inserts into one conversation cost one refetch, not N.
const DefaultDebounce = 300 * time.Millisecond

// Invalidator is the slice of the cache contract the bus needs. The redis
// cache adapter satisfies it.
type Invalidator interface {
	Del(ctx context.Context, keys ...string) (int64, error)
}

// ToastFunc emits the in-app toast frame for a message event.
type ToastFunc func(ev changefeed.Event)

// ParticipantFunc reports whether the session's user is a party to the
// conversation. Membership satisfies it.
type ParticipantFunc func(ctx context.Context, conversationID string) (bool, error)

// Cache key layout shared by the bus (invalidation side) and the unread/
// conversation read paths (fill side).
func UnreadCountKey(userID string) string      { return "unread:user:" + userID }
func ProviderUnreadKey(userID string) string   { return "unread:provider:" + userID }
func ConversationListKey(userID string) string { return "conversations:user:" + userID }
func ConversationDetailKey(id string) string   { return "conversation:" + id }

// Config wires one SessionBus.
type Config struct {
	UserID      string
	Cache       Invalidator
	Toast       ToastFunc
	Notifier    *notification.Manager
	Participant ParticipantFunc
	Events      <-chan changefeed.Event
	Unsubscribe func()
	Debounce    time.Duration
}

// SessionBus is the per-session fan-out over the single multiplexed
// change-feed subscription. On INSERT it invalidates unread badges
// immediately, schedules a debounced detail/list invalidation keyed by
// conversation, and — only for conversations the session's user is a party
// to — emits a toast for foreign messages and conditionally dispatches a
// push. On UPDATE (read-flag flips) only unread badges are invalidated.
type SessionBus struct {
	userID      string
	cache       Invalidator
	toast       ToastFunc
	notifier    *notification.Manager
	participant ParticipantFunc
	debouncer   *Debouncer
	events      <-chan changefeed.Event
	unsubscribe func()

	done      chan struct{}
	closeOnce sync.Once
}

func NewSessionBus(cfg Config) *SessionBus {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	b := &SessionBus{
		userID:      cfg.UserID,
		cache:       cfg.Cache,
		toast:       cfg.Toast,
		notifier:    cfg.Notifier,
		participant: cfg.Participant,
		events:      cfg.Events,
		unsubscribe: cfg.Unsubscribe,
		done:        make(chan struct{}),
	}
	b.debouncer = NewDebouncer(cfg.Debounce, b.invalidateDetail)
	return b
}

// Start launches the consume loop.
func (b *SessionBus) Start() {
	go b.loop()
}

// SetHidden forwards the session's tab visibility to the permission manager.
func (b *SessionBus) SetHidden(hidden bool) {
	if b.notifier != nil {
		b.notifier.SetHidden(hidden)
	}
}

// Close unsubscribes from the feed and cancels all pending debounce timers.
func (b *SessionBus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.debouncer.Close()
		if b.unsubscribe != nil {
			b.unsubscribe()
		}
	})
}

func (b *SessionBus) loop() {
	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.events:
			if !ok {
				return
			}
			b.Handle(ev)
		}
	}
}

// Handle processes one change-feed event.
func (b *SessionBus) Handle(ev changefeed.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	switch ev.Op {
	case changefeed.OpInsert:
		// unread badges must feel instant
		b.invalidateUnread(ctx)
		b.debouncer.Trigger(ev.Message.ConversationID)
		if ev.Message.SenderID != b.userID && b.participates(ctx, ev.Message.ConversationID) {
			if b.toast != nil {
				b.toast(ev)
			}
			if b.notifier != nil {
				b.notifier.ShowNotification(ctx, "New message", pushBody(ev), ev.Message.ConversationID, ev.SenderName)
			}
		}
	case changefeed.OpUpdate:
		b.invalidateUnread(ctx)
	}
}

// participates fails closed: message content crosses the session boundary
// only when the user is confirmed a party to the conversation.
func (b *SessionBus) participates(ctx context.Context, conversationID string) bool {
	if b.participant == nil {
		return false
	}
	in, err := b.participant(ctx, conversationID)
	if err != nil {
		log.Printf("eventbus: membership check failed for conversation %s: %v", conversationID, err)
		return false
	}
	return in
}

func (b *SessionBus) invalidateUnread(ctx context.Context) {
	if _, err := b.cache.Del(ctx, UnreadCountKey(b.userID), ProviderUnreadKey(b.userID)); err != nil {
		log.Printf("eventbus: unread invalidation failed for user %s: %v", b.userID, err)
	}
}

func (b *SessionBus) invalidateDetail(conversationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := b.cache.Del(ctx, ConversationDetailKey(conversationID), ConversationListKey(b.userID)); err != nil {
		log.Printf("eventbus: detail invalidation failed for conversation %s: %v", conversationID, err)
	}
}

func pushBody(ev changefeed.Event) string {
	if ev.Message.HasQuotation() {
		return fmt.Sprintf("Quotation: %d", *ev.Message.QuotationPrice)
	}
	body := ev.Message.Content
	// truncate on rune boundaries so multibyte content never splits
	if r := []rune(body); len(r) > 120 {
		body = string(r[:117]) + "..."
	}
	return body
}
