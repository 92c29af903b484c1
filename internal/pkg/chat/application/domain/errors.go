package chat

import "errors"

// Domain-level errors for conversation and message behaviors
var (
	ErrAuthenticationRequired = errors.New("chat: authentication required")
	ErrPermissionDenied       = errors.New("chat: caller is not a party to this conversation")
	ErrRoleMismatch           = errors.New("chat: sender_type does not match the caller's role")
	ErrInvalidConversation    = errors.New("chat: conversation/message identity is incomplete")
	ErrEmptyMessage           = errors.New("chat: empty message (no content and no quotation)")
	ErrQuotationOutOfRange    = errors.New("chat: quotation price must be positive and at most 10,000,000")
	ErrNotFound               = errors.New("chat: not found")
	ErrCascadeDeleteFailed    = errors.New("chat: cascade delete failed after fallback")
)
