package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/pkg/domain"
)

type fakeForm struct {
	mu       sync.Mutex
	data     domain.FormData
	outcomes []Outcome
}

func (f *fakeForm) Data() domain.FormData { return f.data }

func (f *fakeForm) Complete(ctx context.Context, o Outcome) {
	f.mu.Lock()
	f.outcomes = append(f.outcomes, o)
	f.mu.Unlock()
}

func (f *fakeForm) completed() []Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Outcome(nil), f.outcomes...)
}

func TestFlow_ConfirmationGate(t *testing.T) {
	f := NewFlow("s1", WithDelay(time.Millisecond))
	form := &fakeForm{}

	_, err := f.Confirm(form)
	assert.ErrorIs(t, err, domain.ErrNoPendingConfirmation, "confirm requires a request")

	require.NoError(t, f.Request())
	assert.Equal(t, domain.SubmissionAwaiting, f.Status())

	require.NoError(t, f.Cancel())
	assert.Equal(t, domain.SubmissionIdle, f.Status())
	assert.ErrorIs(t, f.Cancel(), domain.ErrNoPendingConfirmation)

	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, form.completed(), "cancelled flow never submits")
}

func TestFlow_SubmitsAfterDelay(t *testing.T) {
	f := NewFlow("s1", WithDelay(10*time.Millisecond))
	form := &fakeForm{}

	require.NoError(t, f.Request())
	id, err := f.Confirm(form)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionPending, f.Status())

	_, err = f.Confirm(form)
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
	assert.ErrorIs(t, f.Cancel(), domain.ErrSubmissionInFlight)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	receipt, err := f.Wait(ctx)
	require.NoError(t, err)

	assert.Regexp(t, `^[A-Z0-9]{6}$`, receipt.ConfirmationNumber)
	assert.Equal(t, domain.SubmissionSubmitted, f.Status())
	assert.True(t, f.Current(id))

	outcomes := form.completed()
	require.Len(t, outcomes, 1)
	assert.Equal(t, id, outcomes[0].Attempt)
	assert.NoError(t, outcomes[0].Err)

	assert.ErrorIs(t, f.Request(), domain.ErrSubmitted)
	again, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, receipt, again)
}

func TestFlow_DisposeBeforeFire(t *testing.T) {
	f := NewFlow("s1", WithDelay(20*time.Millisecond))
	form := &fakeForm{}

	require.NoError(t, f.Request())
	_, err := f.Confirm(form)
	require.NoError(t, err)

	f.Dispose()

	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPendingConfirmation)

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, form.completed(), "disposed flow must not complete")
}

func TestFlow_ResetDuringGateway(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	gw := GatewayFunc(func(ctx context.Context, id string, data domain.FormData) (domain.Receipt, error) {
		close(entered)
		<-release
		return domain.Receipt{ConfirmationNumber: "ABC123"}, nil
	})

	f := NewFlow("s1", WithDelay(time.Millisecond), WithGateway(gw))
	form := &fakeForm{}

	require.NoError(t, f.Request())
	id, err := f.Confirm(form)
	require.NoError(t, err)

	<-entered
	f.Reset()
	close(release)

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, form.completed())
	assert.False(t, f.Current(id))
	assert.Equal(t, domain.SubmissionIdle, f.Status())
}

func TestFlow_GatewayFailureReturnsToIdle(t *testing.T) {
	boom := errors.New("service unavailable")
	gw := GatewayFunc(func(ctx context.Context, id string, data domain.FormData) (domain.Receipt, error) {
		return domain.Receipt{}, boom
	})
	f := NewFlow("s1", WithDelay(time.Millisecond), WithGateway(gw))
	form := &fakeForm{}

	require.NoError(t, f.Request())
	_, err := f.Confirm(form)
	require.NoError(t, err)

	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.SubmissionIdle, f.Status())
	require.Len(t, form.completed(), 1)
	assert.ErrorIs(t, form.completed()[0].Err, boom)

	assert.NoError(t, f.Request(), "a failed submission can be retried")
}

func TestFlow_LateWaitSeesGatewayError(t *testing.T) {
	boom := errors.New("service unavailable")
	gw := GatewayFunc(func(ctx context.Context, id string, data domain.FormData) (domain.Receipt, error) {
		return domain.Receipt{}, boom
	})
	f := NewFlow("s1", WithDelay(time.Millisecond), WithGateway(gw))
	form := &fakeForm{}

	require.NoError(t, f.Request())
	_, err := f.Confirm(form)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(form.completed()) == 1 }, time.Second, time.Millisecond)

	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, boom, "a wait after the attempt settled reports its failure")

	require.NoError(t, f.Request())
	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPendingConfirmation, "a new request forgets the old failure")

	require.NoError(t, f.Cancel())
	f.Reset()
	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPendingConfirmation)
}

func TestNewConfirmationNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewConfirmationNumber()
		require.NoError(t, err)
		assert.Len(t, id, ConfirmationLength)
		assert.Regexp(t, `^[A-Z0-9]+$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}
