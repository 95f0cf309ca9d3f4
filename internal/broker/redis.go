package broker

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	redis "github.com/redis/go-redis/v9"

	"petrovrp/internal/logger"
)

// Redis implements EventBroker over Redis pub/sub so several API replicas
// share one event stream.
type Redis struct {
	rdb *redis.Client

	mu  sync.Mutex
	pss map[chan Event]*redis.PubSub
}

func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt), pss: map[chan Event]*redis.PubSub{}}, nil
}

func (b *Redis) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *Redis) Close() error { return b.rdb.Close() }

func (b *Redis) Subscribe(topic string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, channelName(topic))
	// wait for the subscription confirmation so early publishes are not lost
	if _, err := ps.Receive(ctx); err != nil {
		logger.Warnf(ctx, "redis subscribe %s: %v", topic, err)
	}
	b.mu.Lock()
	b.pss[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := sonic.UnmarshalString(msg.Payload, &evt); err != nil {
				logger.Warnf(ctx, "redis event decode: %v", err)
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the underlying PubSub; ch is closed once its reader
// goroutine drains.
func (b *Redis) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	ps, ok := b.pss[ch]
	delete(b.pss, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *Redis) Publish(topic string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := sonic.Marshal(evt)
	if err != nil {
		logger.Errorf(ctx, "redis event encode: %v", err)
		return
	}
	if err := b.rdb.Publish(ctx, channelName(topic), data).Err(); err != nil {
		logger.Warnf(ctx, "redis publish %s: %v", topic, err)
	}
}

func channelName(topic string) string { return "petrovrp:" + topic }
