package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

type nsqDelegate struct {
	finished int
	requeued int
}

func (d *nsqDelegate) OnFinish(*nsq.Message) { d.finished++ }
func (d *nsqDelegate) OnRequeue(*nsq.Message, time.Duration, bool) { d.requeued++ }
func (d *nsqDelegate) OnTouch(*nsq.Message) {}

func newTestNSQMessage(t *testing.T, body []byte) (*nsq.Message, *nsqDelegate) {
	t.Helper()

	var id nsq.MessageID
	copy(id[:], "0123456789abcdef")
	m := nsq.NewMessage(id, body)
	m.Attempts = 2
	del := &nsqDelegate{}
	m.Delegate = del
	return m, del
}

func TestNSQDelivery_Envelope(t *testing.T) {
	raw, err := json.Marshal(nsqEnvelope{
		Headers: map[string]string{"cID": "corr-1"},
		Body:    []byte(`{"dispatch_id":"d1"}`),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	m, del := newTestNSQMessage(t, raw)
	d := newNSQDelivery(m)

	if string(d.Body()) != `{"dispatch_id":"d1"}` {
		t.Fatalf("Body() = %s", d.Body())
	}
	if d.Header("cID") != "corr-1" {
		t.Fatalf("Header(cID) = %q", d.Header("cID"))
	}
	if d.Attempts() != 2 {
		t.Fatalf("Attempts() = %d", d.Attempts())
	}

	if err := dispatch(context.Background(), "nsq", func(context.Context, Message) error { return nil }, d); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}
	if del.finished != 1 || del.requeued != 0 {
		t.Fatalf("finished=%d requeued=%d", del.finished, del.requeued)
	}
}

func TestNSQDelivery_RawBody(t *testing.T) {
	m, del := newTestNSQMessage(t, []byte("plain text"))
	d := newNSQDelivery(m)

	if string(d.Body()) != "plain text" || len(d.Headers()) != 0 {
		t.Fatalf("raw message should pass through, got %q %v", d.Body(), d.Headers())
	}

	_ = dispatch(context.Background(), "nsq", func(context.Context, Message) error { return errors.New("retry") }, d)
	if del.requeued != 1 {
		t.Fatalf("requeued = %d, want 1", del.requeued)
	}
}

func TestNSQ_Validation(t *testing.T) {
	n, err := NewNSQ(NSQConfig{})
	if err != nil {
		t.Fatalf("NewNSQ() error = %v", err)
	}
	ctx := context.Background()

	if err := n.Publish(ctx, "topic", OutgoingMessage{}); !errors.Is(err, ErrNSQProducerAddrRequired) {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := n.Consume(ctx, "topic", func(context.Context, Message) error { return nil }); !errors.Is(err, ErrNSQConsumerAddrsRequired) {
		t.Fatalf("Consume() error = %v", err)
	}

	n, _ = NewNSQ(NSQConfig{ConsumerNSQDAddrs: []string{"127.0.0.1:4150"}})
	if err := n.Consume(ctx, "topic", func(context.Context, Message) error { return nil }); !errors.Is(err, ErrGroupRequired) {
		t.Fatalf("Consume() without group error = %v", err)
	}
}
