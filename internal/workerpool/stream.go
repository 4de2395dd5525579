package workerpool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stream is the consumer-group side of a Redis stream.
type Stream interface {
	CreateGroup(ctx context.Context) error
	// Read returns messages never delivered to the group. It returns redis.Nil
	// when the block timeout passes without new messages.
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]redis.XMessage, error)
	// ClaimIdle moves messages that have been pending longer than minIdle to consumer.
	ClaimIdle(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]redis.XMessage, error)
	Ack(ctx context.Context, id string) error
}

type redisStream struct {
	rdb    *redis.Client
	stream string
	group  string
}

func NewRedisStream(rdb *redis.Client, stream, group string) Stream {
	return &redisStream{rdb: rdb, stream: stream, group: group}
}

func (s *redisStream) CreateGroup(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (s *redisStream) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]redis.XMessage, error) {
	entries, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		return nil, err
	}

	var msgs []redis.XMessage
	for _, e := range entries {
		msgs = append(msgs, e.Messages...)
	}
	return msgs, nil
}

func (s *redisStream) ClaimIdle(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]redis.XMessage, error) {
	msgs, _, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.stream,
		Group:    s.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return msgs, err
}

func (s *redisStream) Ack(ctx context.Context, id string) error {
	return s.rdb.XAck(ctx, s.stream, s.group, id).Err()
}
