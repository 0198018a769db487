package saved

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const guestTTL = 30 * 24 * time.Hour

// GuestStore is the session-less half of the dual saved-items store. It
// plays the role browser local storage plays for the web client: a
// per-guest set of product ids with no account attached.
type GuestStore interface {
	Add(ctx context.Context, token, productID string) error
	Remove(ctx context.Context, token, productID string) error
	Members(ctx context.Context, token string) ([]string, error)
	Has(ctx context.Context, token, productID string) (bool, error)
	Clear(ctx context.Context, token string) error
}

type RedisGuestStore struct {
	Client *redis.Client
}

func guestKey(token string) string {
	return fmt.Sprintf("saved:guest:%s", token)
}

func (s *RedisGuestStore) Add(ctx context.Context, token, productID string) error {
	key := guestKey(token)
	if err := s.Client.SAdd(ctx, key, productID).Err(); err != nil {
		return err
	}
	return s.Client.Expire(ctx, key, guestTTL).Err()
}

func (s *RedisGuestStore) Remove(ctx context.Context, token, productID string) error {
	return s.Client.SRem(ctx, guestKey(token), productID).Err()
}

func (s *RedisGuestStore) Members(ctx context.Context, token string) ([]string, error) {
	return s.Client.SMembers(ctx, guestKey(token)).Result()
}

func (s *RedisGuestStore) Has(ctx context.Context, token, productID string) (bool, error) {
	return s.Client.SIsMember(ctx, guestKey(token), productID).Result()
}

func (s *RedisGuestStore) Clear(ctx context.Context, token string) error {
	return s.Client.Del(ctx, guestKey(token)).Err()
}
