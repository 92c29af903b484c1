package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"hopaba-chat/internal/infrastructure/changefeed"
	qport "hopaba-chat/internal/infrastructure/queue/port"
	"hopaba-chat/internal/infrastructure/realtime"
	"hopaba-chat/internal/middleware"
	"hopaba-chat/internal/pkg/chat/eventbus"
	chatport "hopaba-chat/internal/pkg/chat/persistence/repository/port"
	"hopaba-chat/internal/pkg/notification"
	"hopaba-chat/internal/pkg/presence"
	identityport "hopaba-chat/internal/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ChatSocketController handles the websocket endpoint carrying one session's
// multiplexed realtime traffic: change-feed fan-out, presence and the
// notification-permission handshake. There is exactly one socket per
// session regardless of how many conversations the user has open.
type ChatSocketController struct {
	router   *realtime.Router
	tracker  *presence.Tracker
	feed     *changefeed.Listener
	cache    eventbus.Invalidator
	queue    qport.Client
	convs    chatport.ChatRepository
	identity identityport.IdentityRepository
	debounce time.Duration
}

func NewChatSocketController(router *realtime.Router, tracker *presence.Tracker, feed *changefeed.Listener, cache eventbus.Invalidator, queue qport.Client, convs chatport.ChatRepository, identity identityport.IdentityRepository) *ChatSocketController {
	return &ChatSocketController{
		router:   router,
		tracker:  tracker,
		feed:     feed,
		cache:    cache,
		queue:    queue,
		convs:    convs,
		identity: identity,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when the frontend
		// origin list is finalized.
		return true
	},
}

type inboundFrame struct {
	Type       string `json:"type"`
	Supported  *bool  `json:"supported,omitempty"`
	Permission string `json:"permission,omitempty"`
	Decision   string `json:"decision,omitempty"`
	Hidden     *bool  `json:"hidden,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type string `json:"type"`
}

type toastFrame struct {
	Type       string         `json:"type"`
	SenderName string         `json:"sender_name,omitempty"`
	Message    messagePayload `json:"message"`
}

type permissionFrame struct {
	Type       string `json:"type"`
	Permission string `json:"permission"`
	Error      string `json:"error,omitempty"`
}

type presenceSyncFrame struct {
	Type    string            `json:"type"`
	Members []presence.Record `json:"members"`
}

type presenceChangeFrame struct {
	Type   string          `json:"type"`
	Member presence.Record `json:"member"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		displayName := c.Query("display_name")
		if displayName == "" && ctl.identity != nil {
			if name, err := ctl.identity.DisplayName(c.Request.Context(), userID); err == nil {
				displayName = name
			}
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; nothing more to do.
			return
		}

		sess := realtime.NewSession(userID, displayName, ws)
		ctl.router.Attach(sess)

		manager := notification.NewManager()
		membership := eventbus.NewMembership(userID, ctl.convs, ctl.identity)
		subID, events := ctl.feed.Subscribe()
		bus := eventbus.NewSessionBus(eventbus.Config{
			UserID:      userID,
			Cache:       ctl.cache,
			Toast:       func(ev changefeed.Event) { ctl.sendToast(sess, ev) },
			Notifier:    manager,
			Participant: membership.Participant,
			Events:      events,
			Unsubscribe: func() { ctl.feed.Unsubscribe(subID) },
			Debounce:    ctl.debounce,
		})
		bus.Start()

		rec := presence.Record{UserID: userID, DisplayName: displayName, OnlineAt: time.Now().UTC()}
		cameOnline := ctl.tracker.Join(rec)
		ctl.sendPresenceSync(sess)
		if cameOnline {
			ctl.broadcastPresence("presence_join", rec, sess.ID)
		}

		defer func() {
			bus.Close()
			manager.Teardown()
			if wentOffline := ctl.tracker.Leave(userID); wentOffline {
				ctl.broadcastPresence("presence_leave", rec, sess.ID)
			}
			ctl.router.Detach(sess)
			sess.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Type: "connected"}); err == nil {
			_ = sess.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
					errors.Is(err, websocket.ErrCloseSent) {
					return
				}
				ctl.replyError(sess, "read_error", err.Error())
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(sess, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "init":
				ctl.handleInit(sess, manager, frame)
			case "visibility":
				ctl.handleVisibility(sess, bus, frame)
			case "permission":
				ctl.handlePermission(sess, manager, frame)
			default:
				ctl.replyError(sess, "unsupported_type", "unknown frame type")
			}
		}
	}
}

// handleInit records platform support and the current permission, and
// registers the queue-backed delivery agent for the session.
func (ctl *ChatSocketController) handleInit(sess *realtime.Session, manager *notification.Manager, frame inboundFrame) {
	supported := frame.Supported != nil && *frame.Supported
	var agent notification.DeliveryAgent
	if supported && ctl.queue != nil {
		agent = notification.NewQueueAgent(ctl.queue)
	}
	manager.Init(supported, notification.Permission(frame.Permission), agent)

	if payload, err := json.Marshal(permissionFrame{Type: "initialized", Permission: string(manager.Permission())}); err == nil {
		_ = sess.Send(payload)
	}
}

func (ctl *ChatSocketController) handleVisibility(sess *realtime.Session, bus *eventbus.SessionBus, frame inboundFrame) {
	if frame.Hidden == nil {
		ctl.replyError(sess, "bad_request", "hidden is required")
		return
	}
	bus.SetHidden(*frame.Hidden)
	if payload, err := json.Marshal(ackFrame{Type: "visibility_ack"}); err == nil {
		_ = sess.Send(payload)
	}
}

func (ctl *ChatSocketController) handlePermission(sess *realtime.Session, manager *notification.Manager, frame inboundFrame) {
	perm, err := manager.RequestPermission(notification.Decision(frame.Decision))
	out := permissionFrame{Type: "permission_result", Permission: string(perm)}
	if err != nil {
		out.Error = err.Error()
	}
	if payload, merr := json.Marshal(out); merr == nil {
		_ = sess.Send(payload)
	}
}

func (ctl *ChatSocketController) sendToast(sess *realtime.Session, ev changefeed.Event) {
	frame := toastFrame{
		Type:       "toast",
		SenderName: ev.SenderName,
		Message:    toMessagePayload(ev.Message),
	}
	if payload, err := json.Marshal(frame); err == nil {
		_ = sess.Send(payload)
	}
}

func (ctl *ChatSocketController) sendPresenceSync(sess *realtime.Session) {
	frame := presenceSyncFrame{Type: "presence_sync", Members: ctl.tracker.Snapshot()}
	if payload, err := json.Marshal(frame); err == nil {
		_ = sess.Send(payload)
	}
}

func (ctl *ChatSocketController) broadcastPresence(kind string, rec presence.Record, excludeSessionID string) {
	frame := presenceChangeFrame{Type: kind, Member: rec}
	if payload, err := json.Marshal(frame); err == nil {
		ctl.router.BroadcastAll(payload, excludeSessionID)
	}
}

func (ctl *ChatSocketController) replyError(sess *realtime.Session, code string, message string) {
	frame := errorFrame{Type: "error", Code: code, Error: message}
	if payload, err := json.Marshal(frame); err == nil {
		_ = sess.Send(payload)
	}
}
