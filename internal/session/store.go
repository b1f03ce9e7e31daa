// Package session holds the client-persisted state that must survive a
// restart: the auth token and the cart snapshot, keyed by fixed storage names
// and rehydrated at startup.
package session

import "context"

// Fixed storage keys. KeyCart keeps the original boutique storage name so an
// existing snapshot survives an upgrade.
const (
	KeyToken = "jwt"
	KeyCart  = "boutique_cart"
)

// Store is durable client-local key/value storage. Ok is false when the key
// has never been written.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
