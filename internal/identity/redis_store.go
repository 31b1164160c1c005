package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// RedisStore keeps each user as a JSON value under user:<id>, an email index under
// user:email:<email> claimed with SETNX, and the id set users.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore uses prefix to namespace keys; empty means "rideshare:".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rideshare:"
	}

	return &RedisStore{rdb: rdb, prefix: prefix}
}

// OpenRedis parses url, connects and pings.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

func (s *RedisStore) userKey(id string) string     { return s.prefix + "user:" + id }
func (s *RedisStore) emailKey(email string) string { return s.prefix + "user:email:" + email }
func (s *RedisStore) setKey() string               { return s.prefix + "users" }

func (s *RedisStore) Create(ctx context.Context, u User) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	claimed, err := s.rdb.SetNX(ctx, s.emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}

	if !claimed {
		return berr.Conflict(msgEmailTaken)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.userKey(u.ID), body, 0)
		p.SAdd(ctx, s.setKey(), u.ID)

		return nil
	})
	if err != nil {
		s.rdb.Del(ctx, s.emailKey(u.Email))
		return fmt.Errorf("store user: %w", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*User, error) {
	body, err := s.rdb.Get(ctx, s.userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}

	return &u, nil
}

func (s *RedisStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.rdb.Get(ctx, s.emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get email %s: %w", email, err)
	}

	return s.Get(ctx, id)
}

// Update rewrites the record; the email is immutable.
func (s *RedisStore) Update(ctx context.Context, u User) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	ok, err := s.rdb.SetXX(ctx, s.userKey(u.ID), body, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}

	if !ok {
		return berr.NotFound(msgUserNotFound)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil || u == nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.userKey(id), s.emailKey(u.Email))
		p.SRem(ctx, s.setKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	return nil
}

// List returns users oldest first.
func (s *RedisStore) List(ctx context.Context) ([]User, error) {
	ids, err := s.rdb.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if len(ids) == 0 {
		return []User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.userKey(id)
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]User, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}

		var u User
		if err := json.Unmarshal([]byte(str), &u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}

		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}
