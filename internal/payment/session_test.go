package payment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jkimani/duka-pos/internal/payment"
)

// fakeScheduler hands tick control to the test: ticks only fire when the
// test calls Tick.
type fakeScheduler struct {
	mu        sync.Mutex
	started   bool
	onTick    func()
	cancelled bool
}

func (f *fakeScheduler) Start(interval time.Duration, onTick func()) payment.TimerHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	f.onTick = onTick
	f.cancelled = false
	return &fakeHandle{scheduler: f}
}

func (f *fakeScheduler) Tick() {
	f.mu.Lock()
	onTick := f.onTick
	cancelled := f.cancelled
	f.mu.Unlock()
	if onTick != nil && !cancelled {
		onTick()
	}
}

func (f *fakeScheduler) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeScheduler) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

type fakeHandle struct {
	scheduler *fakeScheduler
}

func (h *fakeHandle) Cancel() {
	h.scheduler.mu.Lock()
	defer h.scheduler.mu.Unlock()
	h.scheduler.cancelled = true
}

type statusReply struct {
	status *payment.StatusResult
	err    error
}

// fakeGateway records calls and replays scripted status replies.
type fakeGateway struct {
	mu            sync.Mutex
	initiateErr   error
	checkoutID    string
	statusReplies []statusReply
	initiateCalls int
	checkCalls    int
	lastPhone     string
	lastReference string
}

func (g *fakeGateway) Initiate(ctx context.Context, phone string, amount decimal.Decimal, reference, description string) (*payment.InitiationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initiateCalls++
	g.lastPhone = phone
	g.lastReference = reference
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	id := g.checkoutID
	if id == "" {
		id = "ws_CO_test"
	}
	return &payment.InitiationResult{CheckoutID: id}, nil
}

func (g *fakeGateway) CheckStatus(ctx context.Context, checkoutID string) (*payment.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkCalls++
	if len(g.statusReplies) == 0 {
		return &payment.StatusResult{Confirmed: false}, nil
	}
	reply := g.statusReplies[0]
	g.statusReplies = g.statusReplies[1:]
	return reply.status, reply.err
}

func (g *fakeGateway) CheckCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkCalls
}

func pending() statusReply {
	return statusReply{status: &payment.StatusResult{Confirmed: false}}
}

func confirmed() statusReply {
	return statusReply{status: &payment.StatusResult{Confirmed: true}}
}

func newTestOrchestrator(gateway *fakeGateway, scheduler *fakeScheduler) *payment.Orchestrator {
	return payment.NewOrchestrator(payment.Config{}, gateway, scheduler, zap.NewNop())
}

func mobileMoneyRequest(amount string) payment.Request {
	return payment.Request{
		Amount:      decimal.RequireFromString(amount),
		Method:      payment.MethodMobileMoney,
		MobileMoney: &payment.MobileMoneyDetails{Phone: "0712345678"},
		Description: "Payment for goods",
	}
}

// receiveOutcome reads the resolved outcome without blocking the test
// forever when the session misbehaves.
func receiveOutcome(t *testing.T, session *payment.Session) payment.Outcome {
	t.Helper()
	select {
	case out := <-session.Done():
		return out
	case <-time.After(time.Second):
		t.Fatal("session did not resolve")
		return payment.Outcome{}
	}
}

func assertUnresolved(t *testing.T, session *payment.Session) {
	t.Helper()
	select {
	case out := <-session.Done():
		t.Fatalf("expected no outcome, got %+v", out)
	default:
	}
}

func TestSession_CashConfirmsSynchronously(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), payment.Request{
		Amount: decimal.RequireFromString("63.50"),
		Method: payment.MethodCash,
		Cash:   &payment.CashDetails{Tendered: decimal.RequireFromString("100.00")},
	})
	require.NoError(t, err)

	assert.Equal(t, payment.StateConfirmed, session.State())
	assert.False(t, scheduler.Started(), "synchronous methods must never start a timer")
	assert.Equal(t, 0, gateway.initiateCalls)

	out := receiveOutcome(t, session)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, payment.MethodCash, out.Receipt.Method)
	assert.Equal(t, "Cash: 100.00", out.Receipt.Reference)
	assert.True(t, out.Receipt.Amount.Equal(decimal.RequireFromString("63.50")))
}

func TestSession_CardConfirmsSynchronously(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), payment.Request{
		Amount: decimal.RequireFromString("120.00"),
		Method: payment.MethodCard,
		Card: &payment.CardDetails{
			Number: "4242 4242 4242 4242",
			Expiry: "12/27",
			CVV:    "123",
			Type:   "visa",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, payment.StateConfirmed, session.State())
	assert.False(t, scheduler.Started())

	out := receiveOutcome(t, session)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, "VISA-4242", out.Receipt.Reference)
}

func TestSession_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		req  payment.Request
	}{
		{
			name: "cash tendered below total",
			req: payment.Request{
				Amount: decimal.RequireFromString("63.50"),
				Method: payment.MethodCash,
				Cash:   &payment.CashDetails{Tendered: decimal.RequireFromString("50.00")},
			},
		},
		{
			name: "card number too short",
			req: payment.Request{
				Amount: decimal.NewFromInt(10),
				Method: payment.MethodCard,
				Card:   &payment.CardDetails{Number: "4242 4242", Expiry: "12/27", CVV: "123"},
			},
		},
		{
			name: "card expiry malformed",
			req: payment.Request{
				Amount: decimal.NewFromInt(10),
				Method: payment.MethodCard,
				Card:   &payment.CardDetails{Number: "4242424242424242", Expiry: "122027", CVV: "123"},
			},
		},
		{
			name: "card cvv too short",
			req: payment.Request{
				Amount: decimal.NewFromInt(10),
				Method: payment.MethodCard,
				Card:   &payment.CardDetails{Number: "4242424242424242", Expiry: "12/27", CVV: "1"},
			},
		},
		{
			name: "phone too short",
			req: payment.Request{
				Amount:      decimal.NewFromInt(10),
				Method:      payment.MethodMobileMoney,
				MobileMoney: &payment.MobileMoneyDetails{Phone: "07123"},
			},
		},
		{
			name: "amount not positive",
			req: payment.Request{
				Amount: decimal.Zero,
				Method: payment.MethodCash,
				Cash:   &payment.CashDetails{Tendered: decimal.NewFromInt(10)},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := &fakeGateway{}
			scheduler := &fakeScheduler{}
			orchestrator := newTestOrchestrator(gateway, scheduler)

			session, err := orchestrator.Submit(context.Background(), tc.req)
			assert.Nil(t, session)

			var validationErr *payment.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, 0, gateway.initiateCalls, "validation failures must not hit the network")
			assert.False(t, scheduler.Started())
		})
	}
}

func TestSession_InitiationRejected(t *testing.T) {
	gateway := &fakeGateway{initiateErr: errors.New("insufficient merchant balance")}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	assert.Nil(t, session)

	var gatewayErr *payment.GatewayError
	require.ErrorAs(t, err, &gatewayErr)
	assert.Equal(t, 1, gateway.initiateCalls)
	assert.False(t, scheduler.Started())
}

func TestSession_PhoneNormalizedBeforeInitiation(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	_, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)

	assert.Equal(t, "254712345678", gateway.lastPhone)
	assert.Regexp(t, `^TRX-\d{6}$`, gateway.lastReference)
}

func TestSession_GracePeriodBeforeFirstCheck(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)
	assert.Equal(t, payment.StatePendingConfirmation, session.State())

	// First tick falls inside the grace period: count it, check nothing.
	scheduler.Tick()
	assert.Equal(t, 0, gateway.CheckCalls())
	assert.Equal(t, 1, session.Attempts())
	assert.Equal(t, payment.StatePendingConfirmation, session.State())

	scheduler.Tick()
	assert.Equal(t, 1, gateway.CheckCalls())
}

func TestSession_ConfirmsAfterPolling(t *testing.T) {
	gateway := &fakeGateway{
		checkoutID:    "abc",
		statusReplies: []statusReply{pending(), pending(), confirmed()},
	}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)
	assert.Equal(t, "abc", session.CheckoutID())

	for i := 0; i < 4; i++ {
		scheduler.Tick()
	}

	assert.Equal(t, 3, gateway.CheckCalls())
	assert.Equal(t, payment.StateConfirmed, session.State())

	out := receiveOutcome(t, session)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, payment.MethodMobileMoney, out.Receipt.Method)
	assert.Equal(t, session.Reference(), out.Receipt.Reference)
	assert.True(t, out.Receipt.Amount.Equal(decimal.RequireFromString("250.00")))

	// Ticks after confirmation must not poll again.
	scheduler.Tick()
	scheduler.Tick()
	assert.Equal(t, 3, gateway.CheckCalls())
	assertUnresolved(t, session)
}

func TestSession_SimulatedStatusCountsAsConfirmed(t *testing.T) {
	gateway := &fakeGateway{
		statusReplies: []statusReply{{status: &payment.StatusResult{Confirmed: false, Simulated: true}}},
	}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("99.00"))
	require.NoError(t, err)

	scheduler.Tick()
	scheduler.Tick()

	assert.Equal(t, payment.StateConfirmed, session.State())
	out := receiveOutcome(t, session)
	require.NotNil(t, out.Receipt)
}

func TestSession_CompletionLatchFiresOnce(t *testing.T) {
	gateway := &fakeGateway{
		statusReplies: []statusReply{confirmed(), confirmed()},
	}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		scheduler.Tick()
	}

	out := receiveOutcome(t, session)
	require.NotNil(t, out.Receipt)
	assertUnresolved(t, session)
	assert.Equal(t, 1, gateway.CheckCalls(), "a finished session must not poll again")
}

func TestSession_TransientErrorsKeepPolling(t *testing.T) {
	gateway := &fakeGateway{
		statusReplies: []statusReply{
			{err: errors.New("connection reset")},
			{err: errors.New("bad gateway")},
			confirmed(),
		},
	}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		scheduler.Tick()
	}

	assert.Equal(t, 3, gateway.CheckCalls())
	assert.Equal(t, payment.StateConfirmed, session.State())
	out := receiveOutcome(t, session)
	require.NotNil(t, out.Receipt)
}

func TestSession_FallsBackToManualCode(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)

	maxAttempts := orchestrator.Config().MaxAttempts
	for i := 0; i < maxAttempts; i++ {
		scheduler.Tick()
	}

	assert.Equal(t, payment.StateAwaitingManualCode, session.State())
	assert.True(t, scheduler.Cancelled(), "timer must be cancelled on fallback")

	checks := gateway.CheckCalls()
	scheduler.Tick()
	scheduler.Tick()
	assert.Equal(t, checks, gateway.CheckCalls(), "no further status checks after fallback")
	assertUnresolved(t, session)
}

func TestSession_ManualCode(t *testing.T) {
	t.Run("rejects short codes and stays in place", func(t *testing.T) {
		session := sessionAwaitingManualCode(t)

		err := session.SubmitManualCode("ABC")
		var validationErr *payment.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, payment.StateAwaitingManualCode, session.State())
		assertUnresolved(t, session)
	})

	t.Run("accepts a code of minimum length", func(t *testing.T) {
		session := sessionAwaitingManualCode(t)

		require.NoError(t, session.SubmitManualCode("QGH7TK61MX"))
		assert.Equal(t, payment.StateConfirmed, session.State())

		out := receiveOutcome(t, session)
		require.NotNil(t, out.Receipt)
		assert.Equal(t, "QGH7TK61MX", out.Receipt.Reference, "manual code becomes the payment reference")
	})

	t.Run("rejected outside the manual entry state", func(t *testing.T) {
		gateway := &fakeGateway{}
		scheduler := &fakeScheduler{}
		orchestrator := newTestOrchestrator(gateway, scheduler)

		session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("10.00"))
		require.NoError(t, err)

		err = session.SubmitManualCode("QGH7TK61MX")
		assert.ErrorIs(t, err, payment.ErrNotAwaitingCode)
	})
}

func sessionAwaitingManualCode(t *testing.T) *payment.Session {
	t.Helper()
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)
	for i := 0; i < orchestrator.Config().MaxAttempts; i++ {
		scheduler.Tick()
	}
	require.Equal(t, payment.StateAwaitingManualCode, session.State())
	return session
}

func TestSession_Cancel(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)
	scheduler.Tick()

	session.Cancel()
	assert.Equal(t, payment.StateCancelled, session.State())
	assert.True(t, scheduler.Cancelled())

	out := receiveOutcome(t, session)
	assert.True(t, out.Cancelled)
	assert.Nil(t, out.Receipt)

	// Second cancel is a no-op.
	session.Cancel()
	assertUnresolved(t, session)

	checks := gateway.CheckCalls()
	scheduler.Tick()
	assert.Equal(t, checks, gateway.CheckCalls(), "ticks after cancel must not poll")
}

func TestOrchestrator_OneSaleAtATime(t *testing.T) {
	gateway := &fakeGateway{}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	first, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)

	_, err = orchestrator.Submit(context.Background(), mobileMoneyRequest("10.00"))
	assert.ErrorIs(t, err, payment.ErrPaymentInProgress)

	first.Cancel()
	<-first.Done()

	second, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("10.00"))
	require.NoError(t, err)
	assert.NotNil(t, second)
	assert.Same(t, second, orchestrator.Active())
}

func TestSession_StateNotifications(t *testing.T) {
	gateway := &fakeGateway{statusReplies: []statusReply{confirmed()}}
	scheduler := &fakeScheduler{}
	orchestrator := newTestOrchestrator(gateway, scheduler)

	session, err := orchestrator.Submit(context.Background(), mobileMoneyRequest("250.00"))
	require.NoError(t, err)

	var mu sync.Mutex
	var states []payment.State
	session.OnStateChange(func(st payment.State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	scheduler.Tick()
	scheduler.Tick()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []payment.State{payment.StateVerifying, payment.StateConfirmed}, states)
}
