package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"underwriting-engine/internal/domain/underwriting"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix  = "underwriting:score:"
	defaultSnapshotTTL = 24 * time.Hour
)

type ScoreSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ underwriting.SnapshotStore = (*ScoreSnapshotStore)(nil)

func NewScoreSnapshotStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ScoreSnapshotStore {
	if client == nil {
		panic("redis client cannot be nil for ScoreSnapshotStore")
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreSnapshotStore{client: client, ttl: ttl, logger: logger.With("component", "ScoreSnapshotStore")}
}

func snapshotKey(customerID int64) string {
	return snapshotKeyPrefix + strconv.FormatInt(customerID, 10)
}

func (s *ScoreSnapshotStore) Get(ctx context.Context, customerID int64) (*underwriting.ScoreSnapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey(customerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, underwriting.ErrSnapshotNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to read score snapshot", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("read score snapshot: %w", err)
	}

	var snapshot underwriting.ScoreSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		s.logger.WarnContext(ctx, "Discarding unreadable score snapshot", "customerID", customerID, "error", err)
		return nil, underwriting.ErrSnapshotNotFound
	}
	snapshot.Cached = true
	return &snapshot, nil
}

func (s *ScoreSnapshotStore) Put(ctx context.Context, snapshot *underwriting.ScoreSnapshot) error {
	if snapshot == nil {
		return errors.New("snapshot cannot be nil")
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode score snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(snapshot.CustomerID), body, s.ttl).Err(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write score snapshot", "customerID", snapshot.CustomerID, "error", err)
		return fmt.Errorf("write score snapshot: %w", err)
	}
	return nil
}
