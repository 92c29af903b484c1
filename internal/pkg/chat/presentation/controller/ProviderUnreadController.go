package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	cacheport "hopaba-chat/internal/infrastructure/cache/port"
	"hopaba-chat/internal/middleware"
	"hopaba-chat/internal/pkg/chat/application/usecase"
	"hopaba-chat/internal/pkg/chat/eventbus"
	"hopaba-chat/internal/pkg/chat/persistence/repository/adapter"
	identityadapter "hopaba-chat/internal/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const providerUnreadTTL = 5 * time.Minute

// ProviderUnreadController serves the provider-wide unread total across
// every provider identity the caller owns. Results are cached under the key
// the event bus invalidates on message activity, so badges stay fresh
// without refetch storms.
type ProviderUnreadController struct {
	UC    *usecase.ProviderUnreadUseCase
	Cache cacheport.Cache
}

func NewProviderUnreadController(pool *pgxpool.Pool, cache cacheport.Cache) *ProviderUnreadController {
	repo := adapter.NewPgChatRepository(pool)
	identity := identityadapter.NewPgIdentityRepository(pool)
	return &ProviderUnreadController{
		UC:    usecase.NewProviderUnreadUseCase(repo, identity),
		Cache: cache,
	}
}

func (h *ProviderUnreadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		key := eventbus.ProviderUnreadKey(userID)
		if h.Cache != nil {
			// a miss or cache trouble both fall through to the resolvers
			if cached, err := h.Cache.Get(ctx, key); err == nil {
				if n, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
					c.JSON(http.StatusOK, gin.H{"unread": n, "cached": true})
					return
				}
			}
		}

		n, err := h.UC.Execute(ctx, userID)
		if err != nil {
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}

		if h.Cache != nil {
			_ = h.Cache.Set(ctx, key, strconv.FormatInt(n, 10), providerUnreadTTL)
		}
		c.JSON(http.StatusOK, gin.H{"unread": n})
	}
}
