// Package scanlog keeps the most recent scan results of each event.
package scanlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/go-redis/redis/v8"
)

// Limit is how many scans are kept per event.
const Limit = 10

// Store is a bounded, newest-first scan history.
type Store interface {
	Append(ctx context.Context, rec model.ScanRecord) error
	Recent(ctx context.Context, eventID string) ([]model.ScanRecord, error)
	Clear(ctx context.Context, eventID string) error
}

// RedisStore keeps each event's history in a capped Redis list.
// Key format: scans:{eventID}
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(eventID string) string {
	return fmt.Sprintf("scans:%s", eventID)
}

// Append pushes rec and trims the list to Limit entries.
func (s *RedisStore) Append(ctx context.Context, rec model.ScanRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode scan: %w", err)
	}
	k := key(rec.EventID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, k, data)
		pipe.LTrim(ctx, k, 0, Limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append scan: %w", err)
	}
	return nil
}

// Recent returns the history newest first.
func (s *RedisStore) Recent(ctx context.Context, eventID string) ([]model.ScanRecord, error) {
	raw, err := s.client.LRange(ctx, key(eventID), 0, Limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read scans: %w", err)
	}
	records := make([]model.ScanRecord, 0, len(raw))
	for _, item := range raw {
		var rec model.ScanRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clear drops the event's history.
func (s *RedisStore) Clear(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, key(eventID)).Err(); err != nil {
		return fmt.Errorf("clear scans: %w", err)
	}
	return nil
}

// MemoryStore is the single-instance history used when Redis is not
// configured.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string][]model.ScanRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]model.ScanRecord)}
}

// Append prepends rec and drops entries beyond Limit.
func (s *MemoryStore) Append(_ context.Context, rec model.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]model.ScanRecord{rec}, s.events[rec.EventID]...)
	if len(list) > Limit {
		list = list[:Limit]
	}
	s.events[rec.EventID] = list
	return nil
}

// Recent returns a copy of the history newest first.
func (s *MemoryStore) Recent(_ context.Context, eventID string) ([]model.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ScanRecord(nil), s.events[eventID]...), nil
}

// Clear drops the event's history.
func (s *MemoryStore) Clear(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	return nil
}
