package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("mail circuit breaker open")

type circuitState string

const (
	stateClosed   circuitState = "closed"
	stateOpen     circuitState = "open"
	stateHalfOpen circuitState = "half_open"
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // per send
	FailureThreshold int           // consecutive failures before opening
	Cooldown         time.Duration // open -> half_open
	HalfOpenMaxCalls int           // concurrent trial sends while half_open
	Logger           *slog.Logger
}

// ProtectedNotifier bounds each send and stops calling a mail server that
// keeps failing, so webhook deliveries fail fast and Stripe retries later.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	log   *slog.Logger
	now   func() time.Time

	mu                  sync.Mutex
	state               circuitState
	consecutiveFailures int
	openedAt            time.Time
	trials              int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		state: stateClosed,
	}
}

func (n *ProtectedNotifier) SendPaymentConfirmation(ctx context.Context, in PaymentConfirmationInput) error {
	if !n.acquire() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendPaymentConfirmation(sendCtx, in)

	// the caller giving up says nothing about the mail server
	n.release(err, err != nil && ctx.Err() != nil)

	return err
}

func (n *ProtectedNotifier) acquire() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case stateOpen:
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return false
		}
		n.transition(stateHalfOpen)
		n.trials = 1
		return true
	case stateHalfOpen:
		if n.trials >= n.cfg.HalfOpenMaxCalls {
			return false
		}
		n.trials++
		return true
	default:
		return true
	}
}

func (n *ProtectedNotifier) release(err error, callerCanceled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == stateHalfOpen && n.trials > 0 {
		n.trials--
	}

	if callerCanceled {
		return
	}

	if err == nil {
		n.consecutiveFailures = 0
		if n.state != stateClosed {
			n.transition(stateClosed)
		}
		return
	}

	n.consecutiveFailures++

	if n.state == stateHalfOpen || n.consecutiveFailures >= n.cfg.FailureThreshold {
		n.openedAt = n.now()
		if n.state != stateOpen {
			n.transition(stateOpen)
		}
	}
}

// transition must be called with mu held.
func (n *ProtectedNotifier) transition(to circuitState) {
	n.log.Warn("mail circuit state changed",
		"from", string(n.state),
		"to", string(to),
		"consecutive_failures", n.consecutiveFailures,
	)
	n.state = to
}

// State reports the breaker state: closed, open or half_open.
func (n *ProtectedNotifier) State() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return string(n.state)
}
