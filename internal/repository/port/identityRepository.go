package repository

import "context"

// IdentityRepository resolves ownership of the externally-owned
// service_providers and service_requests tables. The chat layer only ever
// needs ownership edges from them, never full rows.
type IdentityRepository interface {
	// ProviderOwner returns the user id owning the provider, or "" when the
	// provider does not exist.
	ProviderOwner(ctx context.Context, providerID string) (string, error)
	// ProviderOwners is the batched form used by the unread aggregator so a
	// list of conversations costs one identity round-trip, not one per row.
	ProviderOwners(ctx context.Context, providerIDs []string) (map[string]string, error)
	ProviderIDsOwnedBy(ctx context.Context, userID string) ([]string, error)
	// RequestOwner returns the user id that opened the service request.
	RequestOwner(ctx context.Context, requestID string) (string, error)
	DisplayName(ctx context.Context, userID string) (string, error)
}
