package publisher

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"strconv"

	"github.com/redis/go-redis/v9"

	apperrors "sjsage522/portalevents/pkg/errors"
)

// RedisPublisher implements Publisher on Redis streams. Messages are spread over
// streamCount streams named "<prefix>:0" to "<prefix>:<streamCount-1>".
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// RedisOptions configures a RedisPublisher
type RedisOptions struct {
	Addr            string
	DB              int
	StreamPrefix    string
	StreamCount     int
	StreamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(opts RedisOptions) (*RedisPublisher, error) {
	if opts.StreamCount <= 0 {
		return nil, apperrors.NewConfiguration("stream count must be positive", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    opts.StreamPrefix,
		streamCount:     opts.StreamCount,
		streamMaxLength: opts.StreamMaxLength,
	}, nil
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Publish publishes a message to a random stream
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	stream := p.streamPrefix + ":" + strconv.Itoa(rand.IntN(p.streamCount))

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	iter := p.client.Scan(ctx, 0, p.streamPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := p.client.XTrimMaxLen(ctx, iter.Val(), int64(p.streamMaxLength)).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
