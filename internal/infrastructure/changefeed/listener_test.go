package changefeed

import (
	"testing"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"
)

const samplePayload = `{
	"op": "INSERT",
	"sender_name": "Bob the Builder",
	"record": {
		"id": "m1",
		"conversation_id": "conv-1",
		"sender_id": "bob",
		"sender_type": "provider",
		"content": "can do it tomorrow",
		"attachments": ["a.jpg"],
		"quotation_price": 4500,
		"delivery_available": true,
		"pricing_type": "fixed",
		"read": false,
		"created_at": "2026-08-30T12:00:00Z"
	}
}`

func TestDecodeFullRowPayload(t *testing.T) {
	ev, err := decode(samplePayload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Op != OpInsert {
		t.Fatalf("expected INSERT, got %q", ev.Op)
	}
	if ev.SenderName != "Bob the Builder" {
		t.Fatalf("unexpected sender name %q", ev.SenderName)
	}
	m := ev.Message
	if m.ID != "m1" || m.ConversationID != "conv-1" || m.SenderType != chat.SenderProvider {
		t.Fatalf("unexpected message identity: %+v", m)
	}
	if !m.HasQuotation() || *m.QuotationPrice != 4500 {
		t.Fatalf("expected quotation 4500, got %+v", m.QuotationPrice)
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !m.CreatedAt.Equal(want) {
		t.Fatalf("unexpected created_at %v", m.CreatedAt)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := decode("{not json"); err == nil {
		t.Fatalf("expected a decode error")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	l := NewListener(nil)
	_, ch1 := l.Subscribe()
	_, ch2 := l.Subscribe()

	ev := Event{Op: OpInsert, Message: chat.Message{ID: "m1", ConversationID: "c1"}}
	l.publish(ev)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Message.ID != "m1" {
				t.Fatalf("subscriber %d got wrong event: %+v", i, got)
			}
		default:
			t.Fatalf("subscriber %d did not receive the event", i)
		}
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	l := NewListener(nil)
	_, slow := l.Subscribe()

	// fill the subscriber's buffer; further publishes must not block
	for i := 0; i < cap(slow)+10; i++ {
		l.publish(Event{Op: OpInsert, Message: chat.Message{ID: "m", ConversationID: "c1"}})
	}

	if len(slow) != cap(slow) {
		t.Fatalf("expected a full buffer, got %d of %d", len(slow), cap(slow))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	l := NewListener(nil)
	id, ch := l.Subscribe()
	l.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatalf("expected the channel closed after unsubscribe")
	}
	// double unsubscribe must not panic
	l.Unsubscribe(id)
}
