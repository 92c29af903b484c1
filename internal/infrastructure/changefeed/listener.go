package changefeed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// channelName is the LISTEN/NOTIFY channel a trigger on messages writes to.
const channelName = "messages_events"

// Op distinguishes the two row events the feed carries. Messages are never
// deleted except by cascade, so DELETE is not part of the contract.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

// Event is one change on the messages table, full row as payload.
type Event struct {
	Op         Op
	SenderName string
	Message    chat.Message
}

// payload mirrors the trigger's JSON notification body.
type payload struct {
	Op         string `json:"op"`
	SenderName string `json:"sender_name"`
	Record     struct {
		ID                string    `json:"id"`
		ConversationID    string    `json:"conversation_id"`
		SenderID          string    `json:"sender_id"`
		SenderType        string    `json:"sender_type"`
		Content           string    `json:"content"`
		Attachments       []string  `json:"attachments"`
		QuotationPrice    *int64    `json:"quotation_price"`
		QuotationImages   []string  `json:"quotation_images"`
		DeliveryAvailable bool      `json:"delivery_available"`
		PricingType       string    `json:"pricing_type"`
		WholesalePrice    *int64    `json:"wholesale_price"`
		NegotiablePrice   *int64    `json:"negotiable_price"`
		Read              bool      `json:"read"`
		CreatedAt         time.Time `json:"created_at"`
	} `json:"record"`
}

// Listener holds one LISTEN connection and fans events out to subscribers.
// Every active websocket session subscribes once; the session's event bus
// multiplexes all of its conversations over that single subscription.
type Listener struct {
	pool *pgxpool.Pool

	mu   sync.RWMutex
	subs map[string]chan Event
}

func NewListener(pool *pgxpool.Pool) *Listener {
	return &Listener{pool: pool, subs: make(map[string]chan Event)}
}

// Subscribe registers a new consumer. The returned id is passed to
// Unsubscribe on session end.
func (l *Listener) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, 64)
	l.mu.Lock()
	l.subs[id] = ch
	l.mu.Unlock()
	return id, ch
}

func (l *Listener) Unsubscribe(id string) {
	l.mu.Lock()
	if ch, ok := l.subs[id]; ok {
		delete(l.subs, id)
		close(ch)
	}
	l.mu.Unlock()
}

// Run blocks consuming notifications until the context is canceled,
// reconnecting with a short pause after transport errors.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("changefeed: listen error, reconnecting: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := decode(n.Payload)
		if err != nil {
			log.Printf("changefeed: skipping malformed payload: %v", err)
			continue
		}
		l.publish(ev)
	}
}

func (l *Listener) publish(ev Event) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
			// slow consumer; dropping keeps the feed non-blocking and the
			// subscriber converges on its next cache refetch
		}
	}
}

func decode(raw string) (Event, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Event{}, err
	}
	ev := Event{
		Op:         Op(p.Op),
		SenderName: p.SenderName,
		Message: chat.Message{
			ID:                p.Record.ID,
			ConversationID:    p.Record.ConversationID,
			SenderID:          p.Record.SenderID,
			SenderType:        chat.SenderType(p.Record.SenderType),
			Content:           p.Record.Content,
			Attachments:       p.Record.Attachments,
			QuotationPrice:    p.Record.QuotationPrice,
			QuotationImages:   p.Record.QuotationImages,
			DeliveryAvailable: p.Record.DeliveryAvailable,
			PricingType:       chat.PricingType(p.Record.PricingType),
			WholesalePrice:    p.Record.WholesalePrice,
			NegotiablePrice:   p.Record.NegotiablePrice,
			Read:              p.Record.Read,
			CreatedAt:         p.Record.CreatedAt,
		},
	}
	return ev, nil
}
