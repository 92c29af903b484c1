package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgIdentityRepository struct {
	pool *pgxpool.Pool
}

func NewPgIdentityRepository(pool *pgxpool.Pool) *PgIdentityRepository {
	return &PgIdentityRepository{pool: pool}
}

func (r *PgIdentityRepository) ProviderOwner(ctx context.Context, providerID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgIdentityRepository: nil pool")
	}
	var owner string
	err := r.pool.QueryRow(ctx,
		"SELECT user_id::text FROM service_providers WHERE id = $1::uuid", providerID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return owner, err
}

func (r *PgIdentityRepository) ProviderOwners(ctx context.Context, providerIDs []string) (map[string]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgIdentityRepository: nil pool")
	}
	if len(providerIDs) == 0 {
		return map[string]string{}, nil
	}
	rows, err := r.pool.Query(ctx,
		"SELECT id::text, user_id::text FROM service_providers WHERE id = ANY($1::uuid[])", providerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[string]string, len(providerIDs))
	for rows.Next() {
		var id, owner string
		if err := rows.Scan(&id, &owner); err != nil {
			return nil, err
		}
		owners[id] = owner
	}
	return owners, rows.Err()
}

func (r *PgIdentityRepository) ProviderIDsOwnedBy(ctx context.Context, userID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgIdentityRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx,
		"SELECT id::text FROM service_providers WHERE user_id = $1::uuid", userID)
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
}

func (r *PgIdentityRepository) RequestOwner(ctx context.Context, requestID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgIdentityRepository: nil pool")
	}
	var owner string
	err := r.pool.QueryRow(ctx,
		"SELECT user_id::text FROM service_requests WHERE id = $1::uuid", requestID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return owner, err
}

func (r *PgIdentityRepository) DisplayName(ctx context.Context, userID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgIdentityRepository: nil pool")
	}
	var name string
	err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(display_name, '') FROM profiles WHERE id = $1::uuid", userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}
