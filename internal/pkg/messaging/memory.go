package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"go.uber.org/atomic"
)

const (
	memoryQueueSize          = 1024
	defaultMemoryMaxAttempts = 5
)

// ErrMemoryQueueFull is returned when a group queue cannot take more messages.
var ErrMemoryQueueFull = errors.New("messaging: memory queue is full")

// MemoryConfig configures the in-process implementation.
type MemoryConfig struct {
	// MaxAttempts bounds redelivery after a nack. Zero uses 5.
	MaxAttempts int
}

type memoryItem struct {
	id       string
	msg      OutgoingMessage
	attempts int
}

type memoryTopic struct {
	groups  map[string]chan memoryItem
	backlog []memoryItem
}

// Memory delivers messages inside one process. Every group receives each
// message once and consumers sharing a group compete for it. Messages
// published before any consumer exists wait for the first group.
type Memory struct {
	maxAttempts int
	seq         atomic.Uint64
	done        chan struct{}

	mu     sync.Mutex
	topics map[string]*memoryTopic
	closed bool
}

// NewMemory returns an in-process broker.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMemoryMaxAttempts
	}
	return &Memory{
		maxAttempts: cfg.MaxAttempts,
		done:        make(chan struct{}),
		topics:      map[string]*memoryTopic{},
	}
}

// Close stops every running Consume.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish enqueues msg for every group subscribed to topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	item := memoryItem{id: strconv.FormatUint(m.seq.Inc(), 10), msg: msg, attempts: 1}
	t := m.topic(topic)
	if len(t.groups) == 0 {
		if len(t.backlog) >= memoryQueueSize {
			return ErrMemoryQueueFull
		}
		t.backlog = append(t.backlog, item)
		return nil
	}

	for _, ch := range t.groups {
		select {
		case ch <- item:
		default:
			return ErrMemoryQueueFull
		}
	}
	return nil
}

// Consume handles messages of topic for the group named by WithGroup until
// ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	ch, err := m.subscribe(topic, co.group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case item := <-ch:
					_ = dispatch(ctx, "memory", handler, m.newDelivery(ctx, ch, item))
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) subscribe(topic, group string) (chan memoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	t := m.topic(topic)
	ch, ok := t.groups[group]
	if ok {
		return ch, nil
	}

	ch = make(chan memoryItem, memoryQueueSize)
	for _, item := range t.backlog {
		ch <- item
	}
	t.backlog = nil
	t.groups[group] = ch
	return ch, nil
}

// topic returns the topic state for name. Callers hold mu.
func (m *Memory) topic(name string) *memoryTopic {
	t, ok := m.topics[name]
	if !ok {
		t = &memoryTopic{groups: map[string]chan memoryItem{}}
		m.topics[name] = t
	}
	return t
}

func (m *Memory) newDelivery(ctx context.Context, ch chan memoryItem, item memoryItem) *delivery {
	return &delivery{
		id:       item.id,
		body:     item.msg.Body,
		headers:  item.msg.Headers,
		attempts: item.attempts,
		nack: func() error {
			if item.attempts >= m.maxAttempts {
				slog.WarnContext(ctx, "memory broker dropped message", "message_id", item.id, "attempts", item.attempts)
				return nil
			}
			item.attempts++
			select {
			case ch <- item:
				return nil
			default:
				return ErrMemoryQueueFull
			}
		},
	}
}
