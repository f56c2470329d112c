package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// Redis key layout.
const (
	redisKeyPrefix = "nodel:snapshot:"
	redisIndexKey  = "nodel:snapshots"
)

// RedisStore keeps each snapshot in a hash (data, nodes, updated_at) and
// indexes names in a sorted set scored by update time.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to url and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client. Closing the store closes
// the client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, name string, snap nodel.Snapshot) error {
	data, err := encode(name, snap)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisKeyPrefix+name,
			"data", data,
			"nodes", len(snap),
			"updated_at", now.UnixNano(),
		)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(now.Unix()), Member: name})
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) (nodel.Snapshot, error) {
	if err := nerrors.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, redisKeyPrefix+name, "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return decode(name, data)
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := nerrors.ValidateName(name); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKeyPrefix+name)
		pipe.ZRem(ctx, redisIndexKey, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	return nil
}

// List reads the index and fetches node counts in one pipeline. Index
// entries whose hash has vanished are skipped.
func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	names, err := s.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	cmds := make([]*redis.SliceCmd, len(names))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HMGet(ctx, redisKeyPrefix+name, "nodes", "updated_at")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	infos := make([]Info, 0, len(names))
	for i, name := range names {
		vals := cmds[i].Val()
		if len(vals) != 2 || vals[0] == nil {
			continue
		}
		nodes, _ := strconv.Atoi(fmt.Sprint(vals[0]))
		updated, _ := strconv.ParseInt(fmt.Sprint(vals[1]), 10, 64)
		infos = append(infos, Info{Name: name, Nodes: nodes, UpdatedAt: time.Unix(0, updated).UTC()})
	}
	sortInfos(infos)
	return infos, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
