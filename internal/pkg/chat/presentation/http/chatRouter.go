package http

import (
	cacheport "hopaba-chat/internal/infrastructure/cache/port"
	"hopaba-chat/internal/infrastructure/changefeed"
	qport "hopaba-chat/internal/infrastructure/queue/port"
	"hopaba-chat/internal/infrastructure/realtime"
	chatadapter "hopaba-chat/internal/pkg/chat/persistence/repository/adapter"
	"hopaba-chat/internal/pkg/chat/presentation/controller"
	"hopaba-chat/internal/pkg/presence"
	identityadapter "hopaba-chat/internal/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, router *realtime.Router, tracker *presence.Tracker, feed *changefeed.Listener) {
	conversationCtl := controller.NewConversationController(pool)
	listCtl := controller.NewListConversationsController(pool)
	requestConvCtl := controller.NewRequestConversationsController(pool)
	sendMsgCtl := controller.NewSendMessageController(pool)
	getMsgCtl := controller.NewGetMessageController(pool)
	markReadCtl := controller.NewMarkReadController(pool)
	unreadCtl := controller.NewUnreadCountController(pool)
	providerUnreadCtl := controller.NewProviderUnreadController(pool, cache)
	deleteReqCtl := controller.NewDeleteRequestController(pool)
	socketCtl := controller.NewChatSocketController(router, tracker, feed, cache, client,
		chatadapter.NewPgChatRepository(pool), identityadapter.NewPgIdentityRepository(pool))

	// POST /api/v1/conversations -> get-or-create a conversation for a triple
	g.POST("/conversations", conversationCtl.Handle())

	// GET /api/v1/conversations -> list conversations for the caller, both roles
	g.GET("/conversations", listCtl.Handle())

	// GET /api/v1/conversations/unread?ids=... -> batched unread counts
	g.GET("/conversations/unread", unreadCtl.HandleBatch())

	// GET /api/v1/requests/:requestId/conversations -> list by service request
	g.GET("/requests/:requestId/conversations", requestConvCtl.Handle())

	// POST /api/v1/conversations/:conversationId/messages -> send a message
	g.POST("/conversations/:conversationId/messages", sendMsgCtl.Handle())

	// GET /api/v1/conversations/:conversationId/messages -> message history
	g.GET("/conversations/:conversationId/messages", getMsgCtl.Handle())

	// POST /api/v1/conversations/:conversationId/read -> mark foreign side read
	g.POST("/conversations/:conversationId/read", markReadCtl.Handle())

	// GET /api/v1/conversations/:conversationId/unread -> per-conversation badge
	g.GET("/conversations/:conversationId/unread", unreadCtl.Handle())

	// GET /api/v1/unread -> provider-wide unread total for the caller
	g.GET("/unread", providerUnreadCtl.Handle())

	// DELETE /api/v1/requests/:requestId -> cascade delete request + chats
	g.DELETE("/requests/:requestId", deleteReqCtl.Handle())

	// GET /api/v1/chat/ws -> websocket endpoint carrying realtime frames
	g.GET("/chat/ws", socketCtl.Handle())
}
