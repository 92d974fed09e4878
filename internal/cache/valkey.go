package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"attendly/internal/models"
)

// ValkeyClient caches capacity snapshots so the read-only capacity endpoint
// does not hit the database on every poll. Entries are invalidated after
// every committed transition; a miss is never an error for callers.
type ValkeyClient struct {
	client *redis.Client
	ttl    time.Duration
}

type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client: rdb,
		ttl:    cfg.TTL,
	}, nil
}

func capacityKey(eventID int64) string {
	return fmt.Sprintf("capacity:%d", eventID)
}

func (v *ValkeyClient) GetSnapshot(ctx context.Context, eventID int64) (*models.CapacitySnapshot, error) {
	raw, err := v.client.Get(ctx, capacityKey(eventID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("snapshot not cached")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	snap := &models.CapacitySnapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot in cache: %w", err)
	}

	return snap, nil
}

func (v *ValkeyClient) SetSnapshot(ctx context.Context, eventID int64, snap *models.CapacitySnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	return v.client.Set(ctx, capacityKey(eventID), raw, v.ttl).Err()
}

// Invalidate drops the cached snapshot for an event after a transition.
func (v *ValkeyClient) Invalidate(ctx context.Context, eventID int64) error {
	return v.client.Del(ctx, capacityKey(eventID)).Err()
}

func authKey(username, passwordHash string) string {
	return fmt.Sprintf("auth:%s:%s", username, passwordHash)
}

// GetUserIDByAuth resolves a cached Basic Auth credential pair to a user id.
func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, username, passwordHash string) (int64, error) {
	raw, err := v.client.Get(ctx, authKey(username, passwordHash)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("auth not cached")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id in cache: %w", err)
	}
	return userID, nil
}

// SetUserAuth caches a verified credential pair for cheap re-authentication.
func (v *ValkeyClient) SetUserAuth(ctx context.Context, username, passwordHash string, userID int64) error {
	return v.client.Set(ctx, authKey(username, passwordHash), strconv.FormatInt(userID, 10), 5*time.Minute).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
