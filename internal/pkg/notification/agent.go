package notification

import (
	"context"
	"encoding/json"

	qport "hopaba-chat/internal/infrastructure/queue/port"
)

// ShowNotificationTaskType is the queue task name the worker consumes to
// render a push on the platform side.
const ShowNotificationTaskType = "notification:show"

// QueueAgent is the delivery agent used in production: it hands the payload
// to the background queue, where the worker forwards it to the configured
// push endpoint. Delivery is best-effort; exactly-once is out of scope.
type QueueAgent struct {
	client qport.Client
}

func NewQueueAgent(client qport.Client) *QueueAgent {
	return &QueueAgent{client: client}
}

var _ DeliveryAgent = (*QueueAgent)(nil)

func (a *QueueAgent) Show(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = a.client.Enqueue(ctx, qport.Task{Type: ShowNotificationTaskType, Payload: b},
		qport.EnqueueOption{Queue: "push", MaxRetry: 5})
	return err
}
