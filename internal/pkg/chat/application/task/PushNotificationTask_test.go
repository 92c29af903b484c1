package task

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	qport "hopaba-chat/internal/infrastructure/queue/port"
	"hopaba-chat/internal/pkg/notification"
)

type fakeServer struct {
	handlers map[string]qport.Handler
}

func (f *fakeServer) Register(taskType string, h qport.Handler) {
	if f.handlers == nil {
		f.handlers = make(map[string]qport.Handler)
	}
	f.handlers[taskType] = h
}

func (f *fakeServer) Run(ctx context.Context) error  { return nil }
func (f *fakeServer) Stop(ctx context.Context) error { return nil }

func payloadFor(t *testing.T, n notification.Notification) []byte {
	t.Helper()
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestShowNotificationTaskPostsToEndpoint(t *testing.T) {
	var received notification.Notification
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("endpoint received malformed body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer endpoint.Close()

	srv := &fakeServer{}
	RegisterShowNotificationTask(srv, endpoint.URL, endpoint.Client())

	h := srv.handlers[notification.ShowNotificationTaskType]
	if h == nil {
		t.Fatalf("expected the handler registered under %q", notification.ShowNotificationTaskType)
	}

	n := notification.Notification{
		Type:           notification.TypeShowNotification,
		Title:          "New message",
		Body:           "hello",
		ConversationID: "conv-1",
		SenderName:     "Bob",
	}
	err := h(context.Background(), qport.Task{Type: notification.ShowNotificationTaskType, Payload: payloadFor(t, n)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != n {
		t.Fatalf("endpoint saw %+v, want %+v", received, n)
	}
}

func TestShowNotificationTaskRejectsWrongType(t *testing.T) {
	srv := &fakeServer{}
	RegisterShowNotificationTask(srv, "http://127.0.0.1:0", nil)
	h := srv.handlers[notification.ShowNotificationTaskType]

	n := notification.Notification{Type: "SOMETHING_ELSE"}
	if err := h(context.Background(), qport.Task{Type: notification.ShowNotificationTaskType, Payload: payloadFor(t, n)}); err == nil {
		t.Fatalf("expected a type mismatch error")
	}
}

func TestShowNotificationTaskSurfacesEndpointFailure(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer endpoint.Close()

	srv := &fakeServer{}
	RegisterShowNotificationTask(srv, endpoint.URL, endpoint.Client())
	h := srv.handlers[notification.ShowNotificationTaskType]

	n := notification.Notification{Type: notification.TypeShowNotification}
	if err := h(context.Background(), qport.Task{Type: notification.ShowNotificationTaskType, Payload: payloadFor(t, n)}); err == nil {
		t.Fatalf("expected an error for a non-2xx endpoint response")
	}
}
