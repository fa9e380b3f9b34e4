package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sangkips/farmacia-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/farmacia-pos/internal/domain/repository"
)

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionRepository creates a checkout session store backed by redis.
// Every save refreshes the session TTL.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) domainRepo.CheckoutSessionRepository {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &redisSessionRepository{client: client, ttl: ttl}
}

func (r *redisSessionRepository) Get(ctx context.Context, cashierID int64) (*entity.CheckoutSession, error) {
	data, err := r.client.Get(ctx, sessionKey(cashierID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var session entity.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &session, nil
}

func (r *redisSessionRepository) Save(ctx context.Context, session *entity.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.CashierID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, cashierID int64) error {
	if err := r.client.Del(ctx, sessionKey(cashierID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func sessionKey(cashierID int64) string {
	return fmt.Sprintf("checkout:session:%d", cashierID)
}
