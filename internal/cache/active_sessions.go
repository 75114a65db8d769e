// internal/cache/active_sessions.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession is the slim view of an OPEN session cached for gate lookups.
type ActiveSession struct {
	SessionID   string    `json:"session_id"`
	UserID      int64     `json:"user_id"`
	LotID       int64     `json:"lot_id"`
	VehicleID   string    `json:"vehicle_id"`
	VehicleType string    `json:"vehicle_type"`
	EntryTime   time.Time `json:"entry_time"`
}

// ActiveSessionStore caches OPEN sessions in redis keyed by (lot, plate).
// TTL-bounded so abandoned entries age out; the database remains the source
// of truth and callers fall back to it on any miss.
type ActiveSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActiveSessionStore returns a redis-backed store.
func NewActiveSessionStore(client *redis.Client, ttl time.Duration) *ActiveSessionStore {
	return &ActiveSessionStore{client: client, ttl: ttl}
}

func (s *ActiveSessionStore) key(lotID int64, vehicleID string) string {
	return fmt.Sprintf("sessions:active:%d:%s", lotID, vehicleID)
}

// Save caches the session.
func (s *ActiveSessionStore) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.LotID, session.VehicleID), data, s.ttl).Err()
}

// Get returns the cached session, or redis.Nil when absent.
func (s *ActiveSessionStore) Get(ctx context.Context, lotID int64, vehicleID string) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(lotID, vehicleID)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete evicts the cached session.
func (s *ActiveSessionStore) Delete(ctx context.Context, lotID int64, vehicleID string) error {
	return s.client.Del(ctx, s.key(lotID, vehicleID)).Err()
}
