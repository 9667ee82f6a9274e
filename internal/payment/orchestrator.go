package payment

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Orchestrator is the façade the checkout flow talks to. It creates one
// session per sale, routes cash and card through the synchronous path and
// mobile money through the polling session, and exposes the single active
// session for manual-code entry and cancellation.
type Orchestrator struct {
	cfg       Config
	gateway   Gateway
	scheduler Scheduler
	logger    *zap.Logger

	mu     sync.Mutex
	active *Session
}

// NewOrchestrator creates an orchestrator with the given gateway and
// scheduler. Zero fields in cfg fall back to the production defaults.
func NewOrchestrator(cfg Config, gateway Gateway, scheduler Scheduler, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg.withDefaults(),
		gateway:   gateway,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Submit starts a payment attempt for one sale. Validation errors and
// rejected initiations are returned immediately and leave no live session;
// otherwise the returned session resolves its Done channel exactly once with
// either a receipt or a cancellation.
//
// The terminal handles one sale at a time: Submit fails with
// ErrPaymentInProgress while a previous session is still live.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil && !o.active.State().Terminal() {
		return nil, ErrPaymentInProgress
	}

	session := newSession(o.cfg, o.gateway, o.scheduler, o.logger, req)
	if err := session.start(ctx); err != nil {
		return nil, err
	}
	o.active = session
	return session, nil
}

// Active returns the current session, or nil when no payment is live.
func (o *Orchestrator) Active() *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Config returns the orchestrator's effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}
