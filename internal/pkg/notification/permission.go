package notification

import (
	"context"
	"errors"
	"sync"
)

// Permission is the platform notification permission for a session.
type Permission string

const (
	PermissionUnsupported Permission = "unsupported"
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
)

// Decision is the outcome a user gives to a permission prompt.
type Decision string

const (
	DecisionGranted   Decision = "granted"
	DecisionDenied    Decision = "denied"
	DecisionDismissed Decision = "dismissed"
)

var (
	ErrUnsupported     = errors.New("notification: not supported on this platform")
	ErrPromptDismissed = errors.New("notification: permission prompt dismissed")
)

// TypeShowNotification is the only payload type the delivery agent accepts.
const TypeShowNotification = "SHOW_NOTIFICATION"

// Notification is the payload handed to the delivery agent for rendering as
// a system-level notification.
type Notification struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	ConversationID string `json:"conversationId"`
	SenderName     string `json:"senderName"`
}

// DeliveryAgent renders system-level notifications on the manager's behalf.
// It is registered once at session start against a fixed scope.
type DeliveryAgent interface {
	Show(ctx context.Context, n Notification) error
}

// Manager is the per-session permission state machine gating push delivery.
// It is an explicit state object with defined init/teardown rather than ad
// hoc flags: permission crossed with agent registration and tab visibility.
type Manager struct {
	mu         sync.Mutex
	permission Permission
	registered bool
	hidden     bool
	agent      DeliveryAgent
}

// NewManager returns a manager in the unsupported state; Init moves it to a
// real permission once platform support is known.
func NewManager() *Manager {
	return &Manager{permission: PermissionUnsupported}
}

// Init detects platform support, registers the delivery agent and records
// the current permission. Called once per session.
func (m *Manager) Init(supported bool, current Permission, agent DeliveryAgent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !supported {
		m.permission = PermissionUnsupported
		m.registered = false
		m.agent = nil
		return
	}
	if current == "" || current == PermissionUnsupported {
		current = PermissionDefault
	}
	m.permission = current
	m.agent = agent
	m.registered = agent != nil
}

// Teardown releases the agent registration on session end.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agent = nil
	m.registered = false
}

// Permission returns the current permission state.
func (m *Manager) Permission() Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission
}

// Registered reports whether a delivery agent is registered.
func (m *Manager) Registered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered
}

// SetHidden records whether the session's tab is currently hidden.
func (m *Manager) SetHidden(hidden bool) {
	m.mu.Lock()
	m.hidden = hidden
	m.mu.Unlock()
}

// RequestPermission applies the user's prompt decision and returns the
// resulting permission. Dismissal leaves the state at default.
func (m *Manager) RequestPermission(d Decision) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := transition(m.permission, d)
	m.permission = next
	return next, err
}

// transition is the pure permission transition function.
func transition(p Permission, d Decision) (Permission, error) {
	if p == PermissionUnsupported {
		return p, ErrUnsupported
	}
	switch d {
	case DecisionGranted:
		return PermissionGranted, nil
	case DecisionDenied:
		return PermissionDenied, nil
	case DecisionDismissed:
		return p, ErrPromptDismissed
	default:
		return p, ErrPromptDismissed
	}
}

// ShowNotification dispatches through the delivery agent and reports whether
// a push actually went out. It is a no-op unless permission is granted, the
// agent is registered and the tab is hidden; a visible tab already gets the
// in-app toast and must not be double-signaled.
func (m *Manager) ShowNotification(ctx context.Context, title, body, conversationID, senderName string) bool {
	m.mu.Lock()
	ok := m.permission == PermissionGranted && m.registered && m.hidden && m.agent != nil
	agent := m.agent
	m.mu.Unlock()
	if !ok {
		return false
	}
	n := Notification{
		Type:           TypeShowNotification,
		Title:          title,
		Body:           body,
		ConversationID: conversationID,
		SenderName:     senderName,
	}
	if err := agent.Show(ctx, n); err != nil {
		return false
	}
	return true
}
