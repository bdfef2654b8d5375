package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/notification/usecase"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

type fakeUsecase struct {
	mu    sync.Mutex
	calls []usecase.SendOTPInput
	cIDs  []string
	fail  int
	done  chan struct{}
}

func (f *fakeUsecase) SendOTP(ctx context.Context, in usecase.SendOTPInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, in)
	f.cIDs = append(f.cIDs, instrument.GetCorrelationID(ctx))
	if len(f.calls) <= f.fail {
		return errors.New("provider down")
	}
	close(f.done)
	return nil
}

func TestRegisterMQConsumer_DeliversDispatch(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    consumer_names: identity.otp.dispatch.notification
    concurrency: 2
`))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	broker := messaging.NewMemory(messaging.MemoryConfig{MaxAttempts: 3})
	defer broker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	uc := &fakeUsecase{fail: 1, done: make(chan struct{})}
	routine := goroutine.NewManager(2)
	RegisterMQConsumer(ctx, cfg, routine, broker, uid.NewUUID(), uc, instrument.NewNoop())

	body, _ := json.Marshal(event.OTPDispatchMessage{
		DispatchID:  "d-1",
		UserID:      7,
		PhoneNumber: "88888888888",
		Code:        "4321",
		ExpiresAt:   time.Now().Add(time.Minute),
	})
	err = broker.Publish(ctx, event.OTPDispatchTopic, messaging.OutgoingMessage{
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: "cid-9"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-uc.done:
	case <-ctx.Done():
		t.Fatal("dispatch was not consumed")
	}
	cancel()
	_ = routine.Wait()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if len(uc.calls) != 2 {
		t.Fatalf("SendOTP called %d times, want 2 (one failure, one redelivery)", len(uc.calls))
	}
	if uc.calls[1].DispatchID != "d-1" || uc.calls[1].UserID != 7 || uc.calls[1].Code != "4321" {
		t.Fatalf("input = %+v", uc.calls[1])
	}
	if uc.cIDs[0] != "cid-9" {
		t.Fatalf("correlation id = %q", uc.cIDs[0])
	}
}

type fakeMessage struct {
	body    []byte
	headers map[string]string
}

func (m fakeMessage) ID() string                 { return "m-1" }
func (m fakeMessage) Body() []byte               { return m.body }
func (m fakeMessage) Header(key string) string   { return m.headers[key] }
func (m fakeMessage) Headers() map[string]string { return m.headers }
func (m fakeMessage) Attempts() int              { return 1 }

func TestMQHandler_OTPDispatch_BadBodyIsAcked(t *testing.T) {
	uc := &fakeUsecase{done: make(chan struct{})}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

	if err := h.OTPDispatch(context.Background(), fakeMessage{body: []byte("{not json")}); err != nil {
		t.Fatalf("OTPDispatch() error = %v", err)
	}
	if len(uc.calls) != 0 {
		t.Fatal("malformed body must not reach the usecase")
	}
}

func TestMQHandler_GeneratesCorrelationID(t *testing.T) {
	uc := &fakeUsecase{done: make(chan struct{})}
	h := &MQHandler{uc: uc, uuid: uid.NewUUID(), ins: instrument.NewNoop()}

	body, _ := json.Marshal(event.OTPDispatchMessage{DispatchID: "d-2", UserID: 1})
	if err := h.OTPDispatch(context.Background(), fakeMessage{body: body}); err != nil {
		t.Fatalf("OTPDispatch() error = %v", err)
	}
	if len(uc.cIDs) != 1 || uc.cIDs[0] == "" {
		t.Fatalf("correlation ids = %v", uc.cIDs)
	}
}
