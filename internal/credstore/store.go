package credstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Record categories. Each category is one Redis hash per scope, written
// wholesale on every Put (last-write-wins, no read-modify-write).
const (
	// CategoryAuth holds the vendor credential: {accountId, token}.
	CategoryAuth = "auth"

	// CategoryDeviceInfo holds the selected vendor device IDs:
	// {devices: comma-joined externalId list}.
	CategoryDeviceInfo = "deviceInfo"

	// CategoryDeviceLabels holds the user-chosen labels:
	// {labels: comma-joined list, positionally aligned with deviceInfo}.
	CategoryDeviceLabels = "deviceLabels"

	// CategoryDeviceIDs holds the hub device IDs created for an
	// installation: {ids: comma-joined list}. Written by the lifecycle
	// orchestrator so uninstall can cascade-delete per-device records.
	CategoryDeviceIDs = "deviceIds"
)

// keyPrefix namespaces all connector records in the shared Redis instance.
const keyPrefix = "vesync"

// HashClient is the subset of redis.Client used by the store.
// Narrow on purpose so tests can substitute a fake.
type HashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store persists per-installation and per-device records as Redis hashes.
//
// The scope ID is either an installedAppId (during setup) or a hub deviceId
// (after device creation). Categories partition purposes within a scope.
//
// Thread Safety:
//   - All methods are safe for concurrent use; each call is a single
//     wholesale Redis operation.
type Store struct {
	rdb HashClient
}

// New creates a Store over the given hash client.
func New(rdb HashClient) *Store {
	return &Store{rdb: rdb}
}

// key builds the Redis key for a (scopeID, category) pair.
//
// Example: vesync:installed-app-123:auth
func key(scopeID, category string) string {
	return keyPrefix + ":" + scopeID + ":" + category
}

// Put writes the field map for (scopeID, category), replacing any previous
// value field-by-field. Writes are last-write-wins.
//
// Returns:
//   - error: ErrUnavailable (wrapped) if the store cannot be reached
func (s *Store) Put(ctx context.Context, scopeID, category string, fields map[string]string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty field map for %s", ErrMalformedRecord, key(scopeID, category))
	}

	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	if err := s.rdb.HSet(ctx, key(scopeID, category), args...).Err(); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrUnavailable, key(scopeID, category), err)
	}
	return nil
}

// Get retrieves the field map for (scopeID, category).
//
// A key that was never written (or was deleted) returns ErrNotFound so
// callers can branch on absence; transport failures return ErrUnavailable.
// Absence is never reported as a transport error.
func (s *Store) Get(ctx context.Context, scopeID, category string) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, key(scopeID, category)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrUnavailable, key(scopeID, category), err)
	}

	// HGETALL returns an empty map, not an error, for missing keys.
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key(scopeID, category))
	}

	return fields, nil
}

// Delete removes the record for (scopeID, category). Deleting a record that
// does not exist is not an error.
func (s *Store) Delete(ctx context.Context, scopeID, category string) error {
	if err := s.rdb.Del(ctx, key(scopeID, category)).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrUnavailable, key(scopeID, category), err)
	}
	return nil
}
