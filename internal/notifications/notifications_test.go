package notifications

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/config"
)

type fakeNotifier struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (f *fakeNotifier) SendPaymentConfirmation(ctx context.Context, _ PaymentConfirmationInput) error {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestRenderConfirmation(t *testing.T) {
	body, err := renderConfirmation(PaymentConfirmationInput{
		To:           "buyer@example.com",
		ItemName:     "Desk lamp",
		Amount:       "10.0",
		Currency:     "usd",
		SupportEmail: "help@example.com",
	})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	for _, want := range []string{"Desk lamp", "buyer@example.com", "$10.0", "USD", "mailto:help@example.com"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderConfirmation_EscapesItemName(t *testing.T) {
	body, err := renderConfirmation(PaymentConfirmationInput{ItemName: "<script>x</script>", Amount: "1.0"})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("item name must be html-escaped:\n%s", body)
	}
}

func TestSMTPNotifier_BuildMessage(t *testing.T) {
	n := NewSMTPNotifier(config.MailConfig{User: "shop@example.com"})

	m, err := n.buildMessage(PaymentConfirmationInput{To: "buyer@example.com", ItemName: "Desk lamp", Amount: "10.0"})
	if err != nil {
		t.Fatalf("buildMessage error: %v", err)
	}

	rcpts, err := m.GetRecipients()
	if err != nil {
		t.Fatalf("GetRecipients error: %v", err)
	}
	if len(rcpts) != 1 || rcpts[0] != "buyer@example.com" {
		t.Fatalf("unexpected recipients: %v", rcpts)
	}
}

func TestSMTPNotifier_BadRecipient(t *testing.T) {
	n := NewSMTPNotifier(config.MailConfig{User: "shop@example.com"})

	if _, err := n.buildMessage(PaymentConfirmationInput{To: "not an address"}); err == nil {
		t.Fatalf("expected address error")
	}
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Hour})

	ctx := context.Background()
	_ = n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{})
	_ = n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{})

	if n.State() != "open" {
		t.Fatalf("got state %s, want open", n.State())
	}

	if err := n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
	if inner.calls.Load() != 2 {
		t.Fatalf("open circuit must not call inner notifier, calls=%d", inner.calls.Load())
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	_ = n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{})
	if n.State() != "open" {
		t.Fatalf("expected open, got %s", n.State())
	}

	clock = clock.Add(30 * time.Second)
	if err := n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("still cooling down: got %v", err)
	}

	clock = clock.Add(31 * time.Second)
	inner.err = nil

	if err := n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{}); err != nil {
		t.Fatalf("trial call should pass: %v", err)
	}
	if n.State() != "closed" {
		t.Fatalf("expected closed after successful trial, got %s", n.State())
	}
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("smtp down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 3, Cooldown: time.Minute})

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{})
	}

	clock = clock.Add(time.Minute)
	_ = n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{})

	if n.State() != "open" {
		t.Fatalf("failed trial must reopen, got %s", n.State())
	}
	if err := n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
}

func TestProtectedNotifier_CallerCancelNotCounted(t *testing.T) {
	inner := &fakeNotifier{delay: time.Second}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.SendPaymentConfirmation(ctx, PaymentConfirmationInput{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if n.State() != "closed" {
		t.Fatalf("caller cancellation must not open the circuit, got %s", n.State())
	}
}

func TestProtectedNotifier_Timeout(t *testing.T) {
	inner := &fakeNotifier{delay: time.Second}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: 10 * time.Millisecond})

	err := n.SendPaymentConfirmation(context.Background(), PaymentConfirmationInput{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}

func TestLogNotifier(t *testing.T) {
	t.Setenv("NOTIFIER_FAIL", "")
	t.Setenv("NOTIFIER_SLEEP_MS", "")

	if err := NewLogNotifier(nil).SendPaymentConfirmation(context.Background(), PaymentConfirmationInput{To: "a@example.com", Amount: "1.0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("NOTIFIER_FAIL", "1")
	if err := NewLogNotifier(nil).SendPaymentConfirmation(context.Background(), PaymentConfirmationInput{}); err == nil {
		t.Fatalf("expected simulated failure")
	}
}

func TestFromConfig(t *testing.T) {
	if n := FromConfig(config.MailConfig{Driver: "smtp"}, nil); n != nil {
		t.Fatalf("incomplete smtp settings must disable mail, got %T", n)
	}

	if _, ok := FromConfig(config.MailConfig{Driver: "log"}, nil).(*LogNotifier); !ok {
		t.Fatalf("log driver should produce a LogNotifier")
	}

	n := FromConfig(config.MailConfig{Driver: "smtp", Server: "smtp.example.com", Port: 587, User: "u", Password: "p"}, nil)
	if _, ok := n.(*ProtectedNotifier); !ok {
		t.Fatalf("smtp driver should be wrapped in the circuit breaker, got %T", n)
	}
}
