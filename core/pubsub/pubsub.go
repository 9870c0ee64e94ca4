package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewClient connects to redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// PublishClient is the subset of the redis client used by Publisher.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher broadcasts JSON payloads on prefixed redis channels.
type Publisher struct {
	client PublishClient
	prefix string
	log    *zap.Logger
}

// NewPublisher creates a publisher over client.
func NewPublisher(client PublishClient, prefix string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{client: client, prefix: prefix, log: log}
}

// Channel returns the redis channel of topic.
func (p *Publisher) Channel(topic string) string {
	return p.prefix + topic
}

// Publish encodes v as JSON and publishes it on the channel of topic.
func (p *Publisher) Publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", topic, err)
	}
	receivers, err := p.client.Publish(ctx, p.Channel(topic), payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.Channel(topic), err)
	}
	p.log.Debug("Published", zap.String("channel", p.Channel(topic)), zap.Int64("receivers", receivers))
	return nil
}

// Message is one payload received on a topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscriber receives payloads published by a Publisher with the same prefix.
type Subscriber struct {
	client *redis.Client
	prefix string
}

// NewSubscriber creates a subscriber over client.
func NewSubscriber(client *redis.Client, prefix string) *Subscriber {
	return &Subscriber{client: client, prefix: prefix}
}

// Subscribe streams messages of topics until ctx is done. The channel is
// closed when the subscription ends.
func (s *Subscriber) Subscribe(ctx context.Context, topics ...string) (<-chan Message, error) {
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = s.prefix + t
	}
	ps := s.client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				m := Message{Topic: msg.Channel[len(s.prefix):], Payload: []byte(msg.Payload)}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
