// Package sessions keeps per-account ephemeral conversation state in Redis:
// a bounded message history and an active-generation flag. This state belongs
// to the transport layer, never to the entitlement core; every key carries a
// TTL so abandoned sessions expire instead of leaking.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxHistory caps the conversation window passed to the AI gateway.
const maxHistory = 10

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func historyKey(accountID string) string { return "session:history:" + accountID }

func generationKey(accountID string) string { return "session:generating:" + accountID }

// AppendMessage adds a turn to the account's history, trimming it to the
// last maxHistory entries and refreshing the TTL.
func (s *Store) AppendMessage(ctx context.Context, accountID string, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}

	key := historyKey(accountID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -maxHistory, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session store error: %w", err)
	}
	return nil
}

// History returns the account's conversation window, oldest first.
func (s *Store) History(ctx context.Context, accountID string) ([]Message, error) {
	raw, err := s.rdb.LRange(ctx, historyKey(accountID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("session store error: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ClearHistory drops the account's conversation window.
func (s *Store) ClearHistory(ctx context.Context, accountID string) error {
	if err := s.rdb.Del(ctx, historyKey(accountID)).Err(); err != nil {
		return fmt.Errorf("session store error: %w", err)
	}
	return nil
}

// StartGeneration marks a generation in flight. The TTL bounds the flag's
// lifetime even if the transport never calls StopGeneration.
func (s *Store) StartGeneration(ctx context.Context, accountID string) error {
	if err := s.rdb.Set(ctx, generationKey(accountID), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("session store error: %w", err)
	}
	return nil
}

// StopGeneration clears the in-flight flag, on completion or cancellation.
func (s *Store) StopGeneration(ctx context.Context, accountID string) error {
	if err := s.rdb.Del(ctx, generationKey(accountID)).Err(); err != nil {
		return fmt.Errorf("session store error: %w", err)
	}
	return nil
}

// Generating reports whether the account has a generation in flight.
func (s *Store) Generating(ctx context.Context, accountID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, generationKey(accountID)).Result()
	if err != nil {
		return false, fmt.Errorf("session store error: %w", err)
	}
	return n > 0, nil
}
