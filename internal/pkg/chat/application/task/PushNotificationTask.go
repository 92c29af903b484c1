package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	qport "hopaba-chat/internal/infrastructure/queue/port"
	"hopaba-chat/internal/pkg/notification"
)

// RegisterShowNotificationTask binds the push-delivery handler to the worker
// server. The handler forwards the SHOW_NOTIFICATION payload to the platform
// push endpoint, which renders the system-level notification. Retries follow
// the queue's policy; exactly-once delivery is not guaranteed.
func RegisterShowNotificationTask(srv qport.Server, endpoint string, client *http.Client) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	srv.Register(notification.ShowNotificationTaskType, func(ctx context.Context, t qport.Task) error {
		var n notification.Notification
		if err := json.Unmarshal(t.Payload, &n); err != nil {
			// malformed payload: retrying cannot help
			return err
		}
		if n.Type != notification.TypeShowNotification {
			return fmt.Errorf("push: unexpected payload type %q", n.Type)
		}

		body, err := json.Marshal(n)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("push: delivery endpoint returned %s", resp.Status)
		}
		return nil
	})
}
