package service

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// ResetTokenStore 已消费的重置令牌 jti 集合。
// 令牌本身是无状态签名的，这里只补一次性消费语义。
type ResetTokenStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewResetTokenStore(rdb *redis.Client, ttl time.Duration) *ResetTokenStore {
	return &ResetTokenStore{Redis: rdb, TTL: ttl}
}

func (s *ResetTokenStore) key(jti string) string {
	return "reset_token:consumed:" + jti
}

// Consume 标记令牌已使用；返回 false 表示已被消费过
func (s *ResetTokenStore) Consume(ctx context.Context, jti string) (bool, error) {
	ok, err := s.Redis.SetNX(ctx, s.key(jti), 1, s.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release 撤销消费标记。改密在标记之后失败时调用，令牌可重试
func (s *ResetTokenStore) Release(ctx context.Context, jti string) error {
	return s.Redis.Del(ctx, s.key(jti)).Err()
}
