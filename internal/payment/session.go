package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is a payment session's position in its lifecycle.
type State int

const (
	StateValidating State = iota
	StateInitiating
	StatePendingConfirmation
	StateVerifying
	StateConfirmed
	StateAwaitingManualCode
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateInitiating:
		return "initiating"
	case StatePendingConfirmation:
		return "pending_confirmation"
	case StateVerifying:
		return "verifying"
	case StateConfirmed:
		return "confirmed"
	case StateAwaitingManualCode:
		return "awaiting_manual_code"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen from s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateCancelled
}

// Session owns the lifecycle of one payment attempt. It is created by the
// Orchestrator, drives initiation and polling, and resolves its completion
// channel exactly once: either with a receipt or with a cancellation.
//
// A session owns at most one timer handle at a time, held only while it is
// pending confirmation; the handle is cancelled on every exit from that
// state, so no timer outlives its session.
type Session struct {
	id        uuid.UUID
	cfg       Config
	gateway   Gateway
	scheduler Scheduler
	logger    *zap.Logger
	req       Request

	// pollCtx covers status checks issued from timer ticks. Cancelling the
	// session aborts any check in flight.
	pollCtx    context.Context
	pollCancel context.CancelFunc

	mu         sync.Mutex
	state      State
	reference  string
	checkoutID string
	attempts   int
	completed  bool
	checking   bool
	timer      TimerHandle
	onState    func(State)

	done chan Outcome
}

func newSession(cfg Config, gateway Gateway, scheduler Scheduler, logger *zap.Logger, req Request) *Session {
	pollCtx, pollCancel := context.WithCancel(context.Background())
	return &Session{
		id:         uuid.New(),
		cfg:        cfg,
		gateway:    gateway,
		scheduler:  scheduler,
		logger:     logger,
		req:        req,
		pollCtx:    pollCtx,
		pollCancel: pollCancel,
		state:      StateValidating,
		done:       make(chan Outcome, 1),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Done resolves exactly once with the session's terminal outcome: a receipt
// on confirmation, or a cancellation. Failed validation and rejected
// initiation are reported synchronously by Orchestrator.Submit and never
// reach this channel.
func (s *Session) Done() <-chan Outcome {
	return s.done
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reference returns the payment reference for this attempt.
func (s *Session) Reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

// CheckoutID returns the gateway correlation id, empty until initiation
// succeeds.
func (s *Session) CheckoutID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutID
}

// Attempts returns the number of polling ticks elapsed so far.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Amount returns the amount due for this attempt.
func (s *Session) Amount() decimal.Decimal {
	return s.req.Amount
}

// Method returns the payment method of this attempt.
func (s *Session) Method() Method {
	return s.req.Method
}

// OnStateChange registers a listener invoked after every state transition.
// The listener runs outside the session lock but must not block; it is meant
// for presentation layers that render the session's progress.
func (s *Session) OnStateChange(fn func(State)) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// start validates the request and, for mobile money, drives initiation and
// begins polling. Validation and initiation failures are returned to the
// caller; the session is then in a terminal failed state.
func (s *Session) start(ctx context.Context) error {
	if err := s.req.validate(); err != nil {
		s.fail()
		return err
	}

	switch s.req.Method {
	case MethodCash, MethodCard:
		// Synchronous methods confirm on the spot: no gateway, no timer.
		s.transition(StateInitiating)
		s.confirm(s.req.reference())
		return nil
	default:
		return s.initiate(ctx)
	}
}

func (s *Session) initiate(ctx context.Context) error {
	phone, err := NormalizePhone(s.req.MobileMoney.Phone)
	if err != nil {
		s.fail()
		return err
	}

	reference := s.cfg.NewReference()
	s.mu.Lock()
	s.reference = reference
	s.mu.Unlock()
	s.transition(StateInitiating)

	s.logger.Info("initiating push payment",
		zap.String("session_id", s.id.String()),
		zap.String("reference", reference),
		zap.String("amount", s.req.Amount.String()))

	result, err := s.gateway.Initiate(ctx, phone, s.req.Amount, reference, s.req.Description)
	if err != nil {
		s.fail()
		if gwErr, ok := err.(*GatewayError); ok {
			return gwErr
		}
		return &GatewayError{Message: "failed to initiate payment", Err: err}
	}

	s.mu.Lock()
	s.checkoutID = result.CheckoutID
	s.state = StatePendingConfirmation
	s.timer = s.scheduler.Start(s.cfg.PollInterval, s.tick)
	s.mu.Unlock()
	s.notify(StatePendingConfirmation)

	s.logger.Info("push payment initiated, awaiting confirmation",
		zap.String("session_id", s.id.String()),
		zap.String("checkout_id", result.CheckoutID),
		zap.Bool("simulated", result.Simulated))
	return nil
}

// tick runs once per scheduler interval while the session is pending. The
// first GraceTicks ticks only count; after that each tick issues one status
// check, and once MaxAttempts ticks have elapsed the session gives up on
// polling and falls back to manual code entry.
func (s *Session) tick() {
	s.mu.Lock()
	if s.completed || s.state == StateAwaitingManualCode {
		s.mu.Unlock()
		return
	}
	if s.checking {
		// A status check is still in flight; never start a second one.
		s.mu.Unlock()
		return
	}
	s.attempts++
	attempt := s.attempts

	if attempt >= s.cfg.MaxAttempts {
		s.cancelTimerLocked()
		s.state = StateAwaitingManualCode
		s.mu.Unlock()
		s.notify(StateAwaitingManualCode)
		s.logger.Warn("confirmation attempts exhausted, awaiting manual code",
			zap.String("session_id", s.id.String()),
			zap.Int("attempts", attempt))
		return
	}

	if attempt < s.cfg.GraceTicks {
		// Grace period: give the customer time to act before the first poll.
		s.mu.Unlock()
		return
	}

	s.state = StateVerifying
	s.checking = true
	checkoutID := s.checkoutID
	s.mu.Unlock()
	s.notify(StateVerifying)

	status, err := s.gateway.CheckStatus(s.pollCtx, checkoutID)

	s.mu.Lock()
	s.checking = false
	if s.completed {
		// The session finished while the check was in flight; a stale poll
		// must never resurrect it.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.state = StatePendingConfirmation
		s.mu.Unlock()
		s.notify(StatePendingConfirmation)
		s.logger.Warn("status check failed, treating as still pending",
			zap.String("session_id", s.id.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return
	}
	if status.Confirmed || status.Simulated {
		reference := s.reference
		s.completeLocked(StateConfirmed, Outcome{Receipt: &Receipt{
			Method:    s.req.Method,
			Reference: reference,
			Amount:    s.req.Amount,
		}})
		s.mu.Unlock()
		s.notify(StateConfirmed)
		s.logger.Info("payment confirmed",
			zap.String("session_id", s.id.String()),
			zap.String("reference", reference),
			zap.Int("attempt", attempt))
		return
	}
	s.state = StatePendingConfirmation
	s.mu.Unlock()
	s.notify(StatePendingConfirmation)
}

// SubmitManualCode accepts a confirmation code read off the customer's
// device while the session is awaiting manual entry. Codes shorter than the
// configured minimum are rejected and the session remains in place.
func (s *Session) SubmitManualCode(code string) error {
	code = strings.TrimSpace(code)

	s.mu.Lock()
	if s.state != StateAwaitingManualCode {
		s.mu.Unlock()
		return ErrNotAwaitingCode
	}
	if len(code) < s.cfg.ManualCodeMinLen {
		s.mu.Unlock()
		return &ValidationError{Field: "confirmation_code", Message: "confirmation code is too short"}
	}
	s.completeLocked(StateConfirmed, Outcome{Receipt: &Receipt{
		Method:    s.req.Method,
		Reference: code,
		Amount:    s.req.Amount,
	}})
	s.mu.Unlock()
	s.notify(StateConfirmed)

	s.logger.Info("payment confirmed via manual code",
		zap.String("session_id", s.id.String()))
	return nil
}

// Cancel aborts the session from any non-terminal state: the timer is
// cleared synchronously and the completion latch guarantees any in-flight
// status response is discarded. Cancelling a finished session is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.completed || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.completeLocked(StateCancelled, Outcome{Cancelled: true})
	s.mu.Unlock()
	s.notify(StateCancelled)

	s.logger.Info("payment cancelled",
		zap.String("session_id", s.id.String()))
}

// confirm resolves the session successfully with the given reference.
func (s *Session) confirm(reference string) {
	s.mu.Lock()
	s.reference = reference
	s.completeLocked(StateConfirmed, Outcome{Receipt: &Receipt{
		Method:    s.req.Method,
		Reference: reference,
		Amount:    s.req.Amount,
	}})
	s.mu.Unlock()
	s.notify(StateConfirmed)
}

// fail marks the session terminally failed. The error itself is returned to
// the caller by start; the completion channel never resolves for failures.
func (s *Session) fail() {
	s.mu.Lock()
	s.completed = true
	s.cancelTimerLocked()
	s.pollCancel()
	s.state = StateFailed
	s.mu.Unlock()
	s.notify(StateFailed)
}

// completeLocked latches the session and resolves the completion channel.
// The latch makes completion at-most-once: a second call is ignored. Callers
// must hold s.mu.
func (s *Session) completeLocked(state State, out Outcome) {
	if s.completed {
		return
	}
	s.completed = true
	s.cancelTimerLocked()
	s.pollCancel()
	s.state = state
	s.done <- out
}

func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}

func (s *Session) transition(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.notify(state)
}

func (s *Session) notify(state State) {
	s.mu.Lock()
	fn := s.onState
	s.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}
