package v1

import (
	cacheport "hopaba-chat/internal/infrastructure/cache/port"
	"hopaba-chat/internal/infrastructure/changefeed"
	qport "hopaba-chat/internal/infrastructure/queue/port"
	"hopaba-chat/internal/infrastructure/realtime"
	"hopaba-chat/internal/middleware"
	httpHandler "hopaba-chat/internal/pkg/chat/presentation/http"
	"hopaba-chat/internal/pkg/presence"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, secret []byte, pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, router *realtime.Router, tracker *presence.Tracker, feed *changefeed.Listener) {
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(secret))
	// Pass the infrastructure handles down to the HTTP layer
	httpHandler.RegisterRoutes(v1, pool, cache, client, router, tracker, feed)
}
