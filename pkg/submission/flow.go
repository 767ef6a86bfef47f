package submission

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/govform/pkg/domain"
)

// DefaultDelay is the simulated processing time.
const DefaultDelay = 2 * time.Second

// Outcome is delivered to the form once an attempt settles.
type Outcome struct {
	Attempt  uint64
	Receipt  domain.Receipt
	Err      error
	Duration time.Duration
}

// Form is the part of the state machine the flow reads from and reports to.
// Complete is called without any flow lock held.
type Form interface {
	Data() domain.FormData
	Complete(ctx context.Context, o Outcome)
}

type attempt struct {
	id      uint64
	done    chan struct{}
	once    sync.Once
	cancel  context.CancelFunc
	timer   *time.Timer
	receipt domain.Receipt
	err     error
}

func (a *attempt) finish(r domain.Receipt, err error) {
	a.once.Do(func() {
		a.receipt, a.err = r, err
		close(a.done)
	})
}

// Flow is the submission state machine of one session.
type Flow struct {
	mu        sync.Mutex
	sessionID string
	status    domain.SubmissionStatus
	delay     time.Duration
	gateway   Gateway
	now       func() time.Time

	seq      uint64
	current  *attempt
	receipt  *domain.Receipt
	failure  error
	disposed bool
}

// Option configures a Flow.
type Option func(*Flow)

// WithDelay sets the time between confirmation and submission.
func WithDelay(d time.Duration) Option {
	return func(f *Flow) {
		f.delay = d
	}
}

// WithGateway replaces the simulated gateway.
func WithGateway(g Gateway) Option {
	return func(f *Flow) {
		f.gateway = g
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// NewFlow creates an idle flow.
func NewFlow(sessionID string, opts ...Option) *Flow {
	f := &Flow{
		sessionID: sessionID,
		status:    domain.SubmissionIdle,
		delay:     DefaultDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.gateway == nil {
		f.gateway = SimulatedGateway{Now: f.now}
	}
	return f
}

// Status returns the current phase.
func (f *Flow) Status() domain.SubmissionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Receipt returns the receipt of a completed submission.
func (f *Flow) Receipt() (domain.Receipt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receipt == nil {
		return domain.Receipt{}, false
	}
	return *f.receipt, true
}

// Request opens the confirmation gate. Requesting twice is harmless.
// The caller validates the form beforehand.
func (f *Flow) Request() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.status {
	case domain.SubmissionSubmitted:
		return domain.ErrSubmitted
	case domain.SubmissionPending:
		return domain.ErrSubmissionInFlight
	}
	f.status = domain.SubmissionAwaiting
	f.failure = nil
	return nil
}

// Cancel closes the confirmation gate without submitting.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.status {
	case domain.SubmissionAwaiting:
		f.status = domain.SubmissionIdle
		return nil
	case domain.SubmissionPending:
		return domain.ErrSubmissionInFlight
	case domain.SubmissionSubmitted:
		return domain.ErrSubmitted
	}
	return domain.ErrNoPendingConfirmation
}

// Confirm moves from awaiting confirmation to pending and schedules the
// submission. It returns the attempt number.
func (f *Flow) Confirm(form Form) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.status {
	case domain.SubmissionPending:
		return 0, domain.ErrSubmissionInFlight
	case domain.SubmissionSubmitted:
		return 0, domain.ErrSubmitted
	case domain.SubmissionIdle:
		return 0, domain.ErrNoPendingConfirmation
	}
	if f.disposed {
		return 0, domain.ErrNoPendingConfirmation
	}

	f.seq++
	ctx, cancel := context.WithCancel(context.Background())
	a := &attempt{id: f.seq, done: make(chan struct{}), cancel: cancel}
	f.current = a
	f.status = domain.SubmissionPending
	f.failure = nil

	started := f.now()
	a.timer = time.AfterFunc(f.delay, func() {
		f.fire(ctx, a, form, started)
	})
	return a.id, nil
}

func (f *Flow) fire(ctx context.Context, a *attempt, form Form, started time.Time) {
	if !f.live(a) {
		return
	}

	receipt, err := f.gateway.Submit(ctx, f.sessionID, form.Data())

	f.mu.Lock()
	if f.disposed || f.current != a {
		f.mu.Unlock()
		return
	}
	if err != nil {
		f.status = domain.SubmissionIdle
		f.failure = err
	} else {
		f.status = domain.SubmissionSubmitted
		r := receipt
		f.receipt = &r
	}
	f.current = nil
	f.mu.Unlock()

	form.Complete(ctx, Outcome{Attempt: a.id, Receipt: receipt, Err: err, Duration: f.now().Sub(started)})
	a.cancel()
	a.finish(receipt, err)
}

func (f *Flow) live(a *attempt) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.disposed && f.current == a
}

// Current reports whether attempt is the one the flow last settled or is
// running. Forms use it to ignore outcomes that raced with a reset.
func (f *Flow) Current(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.disposed && id == f.seq
}

// Wait blocks until the pending attempt settles or ctx is done. Once an
// attempt has settled it returns that attempt's receipt or gateway error,
// until the next request or a reset.
func (f *Flow) Wait(ctx context.Context) (domain.Receipt, error) {
	f.mu.Lock()
	a := f.current
	receipt := f.receipt
	failure := f.failure
	f.mu.Unlock()

	if a == nil {
		switch {
		case receipt != nil:
			return *receipt, nil
		case failure != nil:
			return domain.Receipt{}, failure
		}
		return domain.Receipt{}, domain.ErrNoPendingConfirmation
	}

	select {
	case <-a.done:
		return a.receipt, a.err
	case <-ctx.Done():
		return domain.Receipt{}, ctx.Err()
	}
}

// Reset abandons any attempt and returns to idle.
func (f *Flow) Reset() {
	f.mu.Lock()
	a := f.current
	f.current = nil
	f.receipt = nil
	f.failure = nil
	f.status = domain.SubmissionIdle
	f.seq++
	f.mu.Unlock()

	abandon(a)
}

// Dispose stops the flow for good. A timer that already fired becomes a no-op.
func (f *Flow) Dispose() {
	f.mu.Lock()
	a := f.current
	f.current = nil
	f.disposed = true
	f.mu.Unlock()

	abandon(a)
}

func abandon(a *attempt) {
	if a == nil {
		return
	}
	a.timer.Stop()
	a.cancel()
	a.finish(domain.Receipt{}, context.Canceled)
}
