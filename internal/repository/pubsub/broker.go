// Package pubsub fans new chat messages out to live subscribers, through
// Redis when it is configured and in process otherwise.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"heather-backend/internal/domain"
	"heather-backend/pkg/logger"
)

// subscriberBuffer is how many undelivered messages a slow subscriber may
// queue before further messages are dropped for it.
const subscriberBuffer = 32

func channelName(conversationID string) string {
	return "messages:" + conversationID
}

type RedisBroker struct {
	client *goredis.Client
	log    *slog.Logger
}

func NewRedisBroker(client *goredis.Client) *RedisBroker {
	return &RedisBroker{client: client, log: logger.Get().With("component", "message_broker")}
}

func (b *RedisBroker) Publish(ctx context.Context, msg *domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := b.client.Publish(ctx, channelName(msg.ConversationID), payload).Err(); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Subscribe relays the conversation channel until ctx ends or cancel is
// called. The returned channel is closed afterwards.
func (b *RedisBroker) Subscribe(ctx context.Context, conversationID string) (<-chan domain.Message, func(), error) {
	ps := b.client.Subscribe(ctx, channelName(conversationID))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", conversationID, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan domain.Message, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				var msg domain.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.log.Warn("dropping undecodable message", "channel", raw.Channel, "error", err)
					continue
				}
				select {
				case out <- msg:
				default:
					b.log.Warn("subscriber too slow, message dropped", "conversation_id", conversationID)
				}
			}
		}
	}()
	return out, cancel, nil
}

// MemoryBroker is the single-process fallback used without Redis.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Message]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[chan domain.Message]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, msg *domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[msg.ConversationID] {
		select {
		case ch <- *msg:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, conversationID string) (<-chan domain.Message, func(), error) {
	ch := make(chan domain.Message, subscriberBuffer)

	b.mu.Lock()
	if b.subs[conversationID] == nil {
		b.subs[conversationID] = make(map[chan domain.Message]struct{})
	}
	b.subs[conversationID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[conversationID], ch)
			if len(b.subs[conversationID]) == 0 {
				delete(b.subs, conversationID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// New picks the Redis broker when client is non-nil.
func New(client *goredis.Client) domain.MessageBroker {
	if client == nil {
		return NewMemoryBroker()
	}
	return NewRedisBroker(client)
}
