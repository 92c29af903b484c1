package adapter

import (
	"context"
	"errors"
	"time"

	chat "hopaba-chat/internal/pkg/chat/application/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const conversationColumns = "id::text, request_id::text, provider_id::text, user_id::text, created_at, last_message_at"

const messageColumns = `id::text, conversation_id::text, sender_id::text, sender_type, content,
		attachments, quotation_price, quotation_images, delivery_available,
		pricing_type, wholesale_price, negotiable_price, read, created_at`

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	return retryRead(ctx, func(ctx context.Context) (*chat.Conversation, error) {
		row := r.pool.QueryRow(ctx,
			"SELECT "+conversationColumns+" FROM conversations WHERE id = $1::uuid", id)
		c, err := scanConversation(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chat.ErrNotFound
		}
		return c, err
	})
}

func (r *PgChatRepository) FindConversationByTriple(ctx context.Context, requestID, providerID, userID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	return retryRead(ctx, func(ctx context.Context) (*chat.Conversation, error) {
		row := r.pool.QueryRow(ctx, `
			SELECT `+conversationColumns+` FROM conversations
			WHERE request_id = $1::uuid AND provider_id = $2::uuid AND user_id = $3::uuid
		`, requestID, providerID, userID)
		c, err := scanConversation(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return c, err
	})
}

// CreateConversation tolerates a lost race on the unique triple: the insert
// is a no-op on conflict and "" is returned so the caller re-reads the
// winner's row.
func (r *PgChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (request_id, provider_id, user_id, created_at, last_message_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $4)
		ON CONFLICT (request_id, provider_id, user_id) DO NOTHING
		RETURNING id::text
	`, c.RequestID, c.ProviderID, c.UserID, c.CreatedAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (r *PgChatRepository) ListConversationsAsRequester(ctx context.Context, userID string) ([]chat.Conversation, error) {
	return r.listConversations(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE user_id = $1::uuid
		ORDER BY last_message_at DESC
	`, userID)
}

func (r *PgChatRepository) ListConversationsAsProviderOwner(ctx context.Context, userID string) ([]chat.Conversation, error) {
	return r.listConversations(ctx, `
		SELECT `+prefixedConversationColumns("c")+` FROM conversations c
		JOIN service_providers sp ON sp.id = c.provider_id
		WHERE sp.user_id = $1::uuid
		ORDER BY c.last_message_at DESC
	`, userID)
}

func (r *PgChatRepository) ListConversationsByRequest(ctx context.Context, requestID string) ([]chat.Conversation, error) {
	return r.listConversations(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE request_id = $1::uuid
		ORDER BY last_message_at DESC
	`, requestID)
}

func (r *PgChatRepository) GetConversationsByIDs(ctx context.Context, ids []string) ([]chat.Conversation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.listConversations(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE id = ANY($1::uuid[])
	`, ids)
}

func (r *PgChatRepository) TouchLastMessageAt(ctx context.Context, conversationID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = GREATEST(last_message_at, $2)
		WHERE id = $1::uuid
	`, conversationID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (
			conversation_id, sender_id, sender_type, content, attachments,
			quotation_price, quotation_images, delivery_available,
			pricing_type, wholesale_price, negotiable_price, read, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, $12)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, string(m.SenderType), m.Content, m.Attachments,
		m.QuotationPrice, m.QuotationImages, m.DeliveryAvailable,
		string(m.PricingType), m.WholesalePrice, m.NegotiablePrice, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return retryRead(ctx, func(ctx context.Context) ([]chat.Message, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT `+messageColumns+`
			FROM messages
			WHERE conversation_id = $1::uuid
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, conversationID, limit, offset)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var msgs []chat.Message
		for rows.Next() {
			m, err := scanMessage(rows)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, *m)
		}
		return msgs, rows.Err()
	})
}

func (r *PgChatRepository) MarkMessagesRead(ctx context.Context, conversationID string, senderType chat.SenderType) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET read = true
		WHERE conversation_id = $1::uuid AND sender_type = $2 AND read = false
	`, conversationID, string(senderType))
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// LatestQuotations resolves the most recent quotation for each conversation
// in one query instead of one round-trip per row.
func (r *PgChatRepository) LatestQuotations(ctx context.Context, conversationIDs []string) (map[string]int64, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if len(conversationIDs) == 0 {
		return map[string]int64{}, nil
	}
	return retryRead(ctx, func(ctx context.Context) (map[string]int64, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT DISTINCT ON (conversation_id) conversation_id::text, quotation_price
			FROM messages
			WHERE conversation_id = ANY($1::uuid[]) AND quotation_price IS NOT NULL
			ORDER BY conversation_id, created_at DESC
		`, conversationIDs)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make(map[string]int64, len(conversationIDs))
		for rows.Next() {
			var id string
			var price int64
			if err := rows.Scan(&id, &price); err != nil {
				return nil, err
			}
			out[id] = price
		}
		return out, rows.Err()
	})
}

func (r *PgChatRepository) CountUnread(ctx context.Context, conversationID string, senderType chat.SenderType) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	return retryRead(ctx, func(ctx context.Context) (int64, error) {
		var n int64
		err := r.pool.QueryRow(ctx, `
			SELECT count(*) FROM messages
			WHERE conversation_id = $1::uuid AND sender_type = $2 AND read = false
		`, conversationID, string(senderType)).Scan(&n)
		return n, err
	})
}

func (r *PgChatRepository) CountUnreadBatch(ctx context.Context, conversationIDs []string, senderType chat.SenderType) (map[string]int64, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if len(conversationIDs) == 0 {
		return map[string]int64{}, nil
	}
	return retryRead(ctx, func(ctx context.Context) (map[string]int64, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT conversation_id::text, count(*) FROM messages
			WHERE conversation_id = ANY($1::uuid[]) AND sender_type = $2 AND read = false
			GROUP BY conversation_id
		`, conversationIDs, string(senderType))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make(map[string]int64, len(conversationIDs))
		for rows.Next() {
			var id string
			var n int64
			if err := rows.Scan(&id, &n); err != nil {
				return nil, err
			}
			out[id] = n
		}
		return out, rows.Err()
	})
}

// CountProviderUnread is the primary provider-wide traversal: a single join
// from provider ownership through conversations to unread requester messages.
func (r *PgChatRepository) CountProviderUnread(ctx context.Context, ownerUserID string) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	return retryRead(ctx, func(ctx context.Context) (int64, error) {
		var n int64
		err := r.pool.QueryRow(ctx, `
			SELECT count(*)
			FROM messages m
			JOIN conversations c ON c.id = m.conversation_id
			JOIN service_providers sp ON sp.id = c.provider_id
			WHERE sp.user_id = $1::uuid AND m.sender_type = 'user' AND m.read = false
		`, ownerUserID).Scan(&n)
		return n, err
	})
}

func (r *PgChatRepository) ConversationIDsForProviders(ctx context.Context, providerIDs []string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if len(providerIDs) == 0 {
		return nil, nil
	}
	return retryRead(ctx, func(ctx context.Context) ([]string, error) {
		rows, err := r.pool.Query(ctx,
			"SELECT id::text FROM conversations WHERE provider_id = ANY($1::uuid[])", providerIDs)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, rows.Err()
	})
}

func (r *PgChatRepository) CountUnreadForConversations(ctx context.Context, conversationIDs []string, senderType chat.SenderType) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	return retryRead(ctx, func(ctx context.Context) (int64, error) {
		var n int64
		err := r.pool.QueryRow(ctx, `
			SELECT count(*) FROM messages
			WHERE conversation_id = ANY($1::uuid[]) AND sender_type = $2 AND read = false
		`, conversationIDs, string(senderType)).Scan(&n)
		return n, err
	})
}

// DeleteRequestCascade invokes the server-side atomic cascade. Callers fall
// back to the explicit multi-step deletes when this path fails.
func (r *PgChatRepository) DeleteRequestCascade(ctx context.Context, requestID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, "SELECT delete_service_request_cascade($1::uuid)", requestID)
	return err
}

func (r *PgChatRepository) DeleteMessagesForRequest(ctx context.Context, requestID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		DELETE FROM messages
		WHERE conversation_id IN (SELECT id FROM conversations WHERE request_id = $1::uuid)
	`, requestID)
	return err
}

func (r *PgChatRepository) DeleteConversationsForRequest(ctx context.Context, requestID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, "DELETE FROM conversations WHERE request_id = $1::uuid", requestID)
	return err
}

func (r *PgChatRepository) DeleteRequest(ctx context.Context, requestID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, "DELETE FROM service_requests WHERE id = $1::uuid", requestID)
	return err
}

func (r *PgChatRepository) listConversations(ctx context.Context, query string, args ...any) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	return retryRead(ctx, func(ctx context.Context) ([]chat.Conversation, error) {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var convs []chat.Conversation
		for rows.Next() {
			c, err := scanConversation(rows)
			if err != nil {
				return nil, err
			}
			convs = append(convs, *c)
		}
		return convs, rows.Err()
	})
}

func scanConversation(row pgx.Row) (*chat.Conversation, error) {
	var c chat.Conversation
	if err := row.Scan(&c.ID, &c.RequestID, &c.ProviderID, &c.UserID, &c.CreatedAt, &c.LastMessageAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanMessage(row pgx.Row) (*chat.Message, error) {
	var (
		m          chat.Message
		senderType string
		pricing    *string
	)
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &senderType, &m.Content,
		&m.Attachments, &m.QuotationPrice, &m.QuotationImages, &m.DeliveryAvailable,
		&pricing, &m.WholesalePrice, &m.NegotiablePrice, &m.Read, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.SenderType = chat.SenderType(senderType)
	if pricing != nil {
		m.PricingType = chat.PricingType(*pricing)
	}
	return &m, nil
}

func prefixedConversationColumns(alias string) string {
	return alias + ".id::text, " + alias + ".request_id::text, " + alias + ".provider_id::text, " +
		alias + ".user_id::text, " + alias + ".created_at, " + alias + ".last_message_at"
}
