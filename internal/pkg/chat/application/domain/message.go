package chat

import (
	"strings"
	"time"
)

// SenderType identifies which side of a conversation authored a message.
type SenderType string

const (
	SenderUser     SenderType = "user"
	SenderProvider SenderType = "provider"
)

// Valid reports whether s is one of the two known roles.
func (s SenderType) Valid() bool {
	return s == SenderUser || s == SenderProvider
}

// Other returns the opposite role. Unread counts are always taken over
// messages authored by the other role relative to the caller.
func (s SenderType) Other() SenderType {
	if s == SenderUser {
		return SenderProvider
	}
	return SenderUser
}

// PricingType qualifies a quotation attached to a message.
type PricingType string

const (
	PricingFixed      PricingType = "fixed"
	PricingNegotiable PricingType = "negotiable"
	PricingWholesale  PricingType = "wholesale"
)

// MaxQuotationPrice is the upper bound accepted for quotation_price.
const MaxQuotationPrice = 10_000_000

// Message is an immutable log entry in a conversation, optionally carrying
// a priced quotation. The only mutation allowed after insert is the
// monotonic read flag (false -> true).
type Message struct {
	ID                string      `db:"id"`
	ConversationID    string      `db:"conversation_id"`
	SenderID          string      `db:"sender_id"`
	SenderType        SenderType  `db:"sender_type"`
	Content           string      `db:"content"`
	Attachments       []string    `db:"attachments"`
	QuotationPrice    *int64      `db:"quotation_price"`
	QuotationImages   []string    `db:"quotation_images"`
	DeliveryAvailable bool        `db:"delivery_available"`
	PricingType       PricingType `db:"pricing_type"`
	WholesalePrice    *int64      `db:"wholesale_price"`
	NegotiablePrice   *int64      `db:"negotiable_price"`
	Read              bool        `db:"read"`
	CreatedAt         time.Time   `db:"created_at"`
}

// HasQuotation reports whether the message carries a priced offer.
func (m Message) HasQuotation() bool {
	return m.QuotationPrice != nil
}

// NewMessage validates and normalizes a message before persistence.
//
// Rules:
//   - conversation and sender identity are required
//   - sender_type must be a known role
//   - content is trimmed; an empty message is only valid with a quotation
//   - quotation_price, when present, must satisfy 0 < price <= MaxQuotationPrice
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.SenderID == "" {
		return nil, ErrInvalidConversation
	}
	if !m.SenderType.Valid() {
		return nil, ErrRoleMismatch
	}

	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" && m.QuotationPrice == nil {
		return nil, ErrEmptyMessage
	}

	if m.QuotationPrice != nil {
		if *m.QuotationPrice <= 0 || *m.QuotationPrice > MaxQuotationPrice {
			return nil, ErrQuotationOutOfRange
		}
		if m.PricingType == "" {
			m.PricingType = PricingFixed
		}
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}
