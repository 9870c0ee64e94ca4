package pubsub_test

import (
	"context"
	"errors"
	"testing"

	"feedsync/core/pubsub"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func TestPublisher_Publish(t *testing.T) {
	client := &mockClient{}
	client.On("Publish", mock.Anything, "feedsync:projection:home", []byte(`{"feed":"home","refs":[]}`)).
		Return(2, nil)

	p := pubsub.NewPublisher(client, "feedsync:projection:", nil)
	err := p.Publish(context.Background(), "home", map[string]any{"feed": "home", "refs": []string{}})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPublisher_PublishError(t *testing.T) {
	client := &mockClient{}
	client.On("Publish", mock.Anything, "p:home", mock.Anything).Return(0, errors.New("connection refused"))

	p := pubsub.NewPublisher(client, "p:", nil)
	err := p.Publish(context.Background(), "home", struct{}{})
	assert.ErrorContains(t, err, "p:home")
	assert.ErrorContains(t, err, "connection refused")
}

func TestPublisher_EncodeError(t *testing.T) {
	p := pubsub.NewPublisher(&mockClient{}, "p:", nil)
	err := p.Publish(context.Background(), "home", make(chan int))
	assert.ErrorContains(t, err, "failed to encode")
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pubsub.NewClient(ctx, pubsub.Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
