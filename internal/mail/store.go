package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deliveryKeyPrefix = "mail:"

// Status はメール配送の状態を表します。
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "error"
)

// Record は1通分の配送状態を表します。
type Record struct {
	DeliveryID string    `json:"deliveryId"`
	Recipient  string    `json:"recipient"`
	Subject    string    `json:"subject"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Store は配送状態を Redis に保存します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// get は配送情報を取得します。存在しない場合は nil を返します。
func (s *Store) get(ctx context.Context, deliveryID string) (*Record, error) {
	if deliveryID == "" {
		return nil, fmt.Errorf("deliveryID is required")
	}
	data, err := s.rdb.Get(ctx, deliveryKey(deliveryID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert は配送情報を保存します（存在しない場合は作成）。
func (s *Store) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.ExpiresAt.IsZero() && s.ttl > 0 {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, deliveryKey(record.DeliveryID), payload, s.ttl).Err()
}

// MarkSent は送信完了を記録します。
func (s *Store) MarkSent(ctx context.Context, deliveryID string) error {
	return s.updatePartial(ctx, deliveryID, func(record *Record) {
		record.Status = StatusSent
		record.Error = ""
	})
}

// MarkFailed は送信失敗を記録します。
func (s *Store) MarkFailed(ctx context.Context, deliveryID string, message string) error {
	return s.updatePartial(ctx, deliveryID, func(record *Record) {
		record.Status = StatusFailed
		record.Error = message
	})
}

func (s *Store) updatePartial(ctx context.Context, deliveryID string, mutate func(*Record)) error {
	for {
		record, err := s.get(ctx, deliveryID)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("delivery not found: %s", deliveryID)
		}
		mutate(record)
		record.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		tx := s.rdb.TxPipeline()
		tx.Set(ctx, deliveryKey(deliveryID), payload, s.ttl)
		_, err = tx.Exec(ctx)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
}

func deliveryKey(id string) string {
	return deliveryKeyPrefix + id
}
