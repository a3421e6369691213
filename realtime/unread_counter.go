package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/go-redis/redis/v8"
)

const unreadCountTTL = 10 * time.Minute

// KEYS[1] is the cached count, KEYS[2] the fill generation.
var incrIfExists = redis.NewScript(`
redis.call("INCR", KEYS[2])
redis.call("EXPIRE", KEYS[2], ARGV[1])
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("INCR", KEYS[1])
end
return false
`)

var fillIfUnchanged = redis.NewScript(`
if redis.call("GET", KEYS[2]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "EX", ARGV[3])
	return 1
end
return 0
`)

var invalidate = redis.NewScript(`
redis.call("INCR", KEYS[2])
redis.call("EXPIRE", KEYS[2], ARGV[1])
return redis.call("DEL", KEYS[1])
`)

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return id != "" && !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) EncodeUnreadKey(userId string) (string, error) {
	if !r.ValidateId(userId) {
		return "", fmt.Errorf("invalid userId: %q", userId)
	}
	return fmt.Sprintf("unread%s%s", r.delimiter, userId), nil
}

func (r RedisKeyParser) EncodeFillKey(userId string) (string, error) {
	if !r.ValidateId(userId) {
		return "", fmt.Errorf("invalid userId: %q", userId)
	}
	return fmt.Sprintf("unreadfill%s%s", r.delimiter, userId), nil
}

func (r RedisKeyParser) keys(userId string) ([]string, error) {
	key, err := r.EncodeUnreadKey(userId)
	if err != nil {
		return nil, err
	}
	fill, err := r.EncodeFillKey(userId)
	if err != nil {
		return nil, err
	}
	return []string{key, fill}, nil
}

func (r RedisKeyParser) DecodeUnreadKey(key string) (string, error) {
	splits := strings.Split(key, r.delimiter)
	if len(splits) != 2 || splits[0] != "unread" {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return splits[1], nil
}

// UnreadCounter caches the unread notification count of users in redis. The
// store stays the source of truth: a missing entry means "recount".
type UnreadCounter struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

func NewUnreadCounter(client *redis.Client) *UnreadCounter {
	return &UnreadCounter{
		inner:     client,
		keyParser: RedisKeyParser{delimiter: "__"},
	}
}

// Get returns the cached count and whether there was one.
func (c *UnreadCounter) Get(ctx context.Context, userId string) (int64, bool, error) {
	key, err := c.keyParser.EncodeUnreadKey(userId)
	if err != nil {
		return 0, false, err
	}
	n, err := c.inner.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *UnreadCounter) Set(ctx context.Context, userId string, count int64) error {
	key, err := c.keyParser.EncodeUnreadKey(userId)
	if err != nil {
		return err
	}
	return c.inner.Set(ctx, key, count, unreadCountTTL).Err()
}

// BeginFill starts a recount and returns the generation Fill must present.
// Any Incr or Invalidate in between moves the generation on.
func (c *UnreadCounter) BeginFill(ctx context.Context, userId string) (int64, error) {
	fill, err := c.keyParser.EncodeFillKey(userId)
	if err != nil {
		return 0, err
	}
	pipe := c.inner.TxPipeline()
	gen := pipe.Incr(ctx, fill)
	pipe.Expire(ctx, fill, unreadCountTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return gen.Val(), nil
}

// Fill caches count unless the count changed since BeginFill returned gen.
// It reports whether the count was cached.
func (c *UnreadCounter) Fill(ctx context.Context, userId string, count, gen int64) (bool, error) {
	keys, err := c.keyParser.keys(userId)
	if err != nil {
		return false, err
	}
	n, err := fillIfUnchanged.Run(ctx, c.inner, keys, gen, count, int64(unreadCountTTL/time.Second)).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Incr bumps a cached count. Nothing is cached when there was no entry, so
// that the next read recounts.
func (c *UnreadCounter) Incr(ctx context.Context, userId string) error {
	keys, err := c.keyParser.keys(userId)
	if err != nil {
		return err
	}
	err = incrIfExists.Run(ctx, c.inner, keys, int64(unreadCountTTL/time.Second)).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}

// Invalidate drops the cached count and any recount still in flight.
func (c *UnreadCounter) Invalidate(ctx context.Context, userId string) error {
	keys, err := c.keyParser.keys(userId)
	if err != nil {
		return err
	}
	return invalidate.Run(ctx, c.inner, keys, int64(unreadCountTTL/time.Second)).Err()
}

// Track keeps the cache in step with notification inserts published on hub.
func (c *UnreadCounter) Track(hub *Hub) (remove func()) {
	return hub.OnPublish(func(ctx context.Context, event model.ChangeEvent) {
		kind, userId, err := model.ParseChannel(event.Channel)
		if err != nil || kind != model.ChannelKindNotifications || event.Op != model.ChangeOpInsert {
			return
		}
		if err := c.Incr(ctx, userId); err != nil {
			Log.WithError(err).Warnf("cannot bump unread count of %s", userId)
		}
	})
}
