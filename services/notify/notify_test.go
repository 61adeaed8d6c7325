package notify

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type outcomes struct {
	mu      sync.Mutex
	results []Result
}

func (o *outcomes) Record(res Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, res)
}

func (o *outcomes) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	var n int
	for _, res := range o.results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// mailerFunc adapts a function to core.EmailService.
type mailerFunc func(ctx context.Context, msg *core.EmailMessage) error

func (f mailerFunc) Send(ctx context.Context, msg *core.EmailMessage) error { return f(ctx, msg) }

func message(to string) *core.EmailMessage {
	return &core.EmailMessage{To: []mail.Address{{Address: to}}, BodyStr: "hi"}
}

func TestNewDispatcher_InvalidArgs(t *testing.T) {
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error { return nil })

	_, err := NewDispatcher(nil, nopLogger{}, Options{Workers: 1})
	assert.Error(t, err)
	_, err = NewDispatcher(mailer, nopLogger{}, Options{Workers: 0})
	assert.Error(t, err)
	_, err = NewDispatcher(mailer, nopLogger{}, Options{Workers: 1, QueueSize: -1})
	assert.Error(t, err)
	_, err = NewDispatcher(mailer, nil, Options{Workers: 1})
	assert.Error(t, err)
}

func TestNewDispatcher_ValueTypedDependencies(t *testing.T) {
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error { return nil })

	var d *Dispatcher
	var err error
	require.NotPanics(t, func() { d, err = NewDispatcher(mailer, nopLogger{}, Options{Workers: 1}) })
	require.NoError(t, err)
	assert.True(t, d.Dispatch("test", message("a@example.com")))
	assert.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcher_DeliversAndRecordsFailures(t *testing.T) {
	rec := new(outcomes)
	mailer := mailerFunc(func(_ context.Context, msg *core.EmailMessage) error {
		if msg.To[0].Address == "bad@example.com" {
			return errors.New("smtp down")
		}
		return nil
	})
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 3, QueueSize: 16}, rec)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.True(t, d.Dispatch("test", message(fmt.Sprintf("s%d@example.com", i))))
	}
	assert.True(t, d.Dispatch("test", message("bad@example.com")))
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, 5, rec.count(OutcomeDelivered))
	assert.Equal(t, 1, rec.count(OutcomeFailed))
	for _, res := range rec.results {
		if res.Outcome == OutcomeFailed {
			var dErr *core.DeliveryError
			require.True(t, errors.As(res.Err, &dErr))
			assert.Equal(t, "bad@example.com", dErr.Recipient)
			assert.Equal(t, "test", res.Kind)
		}
	}
}

func TestDispatcher_BoundedConcurrency(t *testing.T) {
	const workers = 2
	var inFlight, maxInFlight int32
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: workers, QueueSize: 32})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		d.Dispatch("test", message(fmt.Sprintf("s%d@example.com", i)))
	}
	require.NoError(t, d.Shutdown(context.Background()))
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(workers))
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	rec := new(outcomes)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 1, QueueSize: 1}, rec)
	require.NoError(t, err)

	require.True(t, d.Dispatch("test", message("a1@example.com"), message("a2@example.com")))
	<-started // the only worker holds a1 and a2 is waiting for it
	require.True(t, d.Dispatch("test", message("b@example.com")))
	assert.False(t, d.Dispatch("test", message("c1@example.com"), message("c2@example.com")))

	close(release)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, 3, rec.count(OutcomeDelivered))
	assert.Equal(t, 2, rec.count(OutcomeDropped))
	for _, res := range rec.results {
		if res.Outcome == OutcomeDropped {
			assert.ErrorIs(t, res.Err, ErrQueueFull)
		}
	}
}

func TestDispatcher_BatchLargerThanQueue(t *testing.T) {
	const n = 300
	rec := new(outcomes)
	release := make(chan struct{})
	var sent int32
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error {
		<-release
		atomic.AddInt32(&sent, 1)
		return nil
	})
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 4, QueueSize: 2}, rec)
	require.NoError(t, err)

	msgs := make([]*core.EmailMessage, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, message(fmt.Sprintf("s%d@example.com", i)))
	}
	require.True(t, d.Dispatch("test", msgs...))

	close(release)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.EqualValues(t, n, atomic.LoadInt32(&sent))
	assert.Equal(t, n, rec.count(OutcomeDelivered))
	assert.Zero(t, rec.count(OutcomeDropped))
}

func TestDispatcher_EmptyBatch(t *testing.T) {
	rec := new(outcomes)
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error { return nil })
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 1}, rec)
	require.NoError(t, err)

	assert.True(t, d.Dispatch("test"))
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Empty(t, rec.results)
}

func TestDispatcher_DispatchAfterShutdown(t *testing.T) {
	rec := new(outcomes)
	mailer := mailerFunc(func(context.Context, *core.EmailMessage) error { return nil })
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 1, QueueSize: 1}, rec)
	require.NoError(t, err)
	require.NoError(t, d.Shutdown(context.Background()))

	assert.False(t, d.Dispatch("test", message("a@example.com")))
	assert.Equal(t, 1, rec.count(OutcomeDropped))
	assert.NoError(t, d.Shutdown(context.Background()))
}

func TestDispatcher_SendTimeout(t *testing.T) {
	rec := new(outcomes)
	mailer := mailerFunc(func(ctx context.Context, msg *core.EmailMessage) error {
		<-ctx.Done()
		return core.NewDeliveryError(msg.To[0].Address, ctx.Err())
	})
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 1, QueueSize: 1, SendTimeout: 10 * time.Millisecond}, rec)
	require.NoError(t, err)

	d.Dispatch("test", message("slow@example.com"))
	require.NoError(t, d.Shutdown(context.Background()))
	require.Equal(t, 1, rec.count(OutcomeFailed))
	assert.ErrorIs(t, rec.results[0].Err, context.DeadlineExceeded)
}

func TestDispatcher_ShutdownDeadline(t *testing.T) {
	mailer := mailerFunc(func(ctx context.Context, msg *core.EmailMessage) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d, err := NewDispatcher(mailer, nopLogger{}, Options{Workers: 1, QueueSize: 4}, RecorderFunc(func(Result) {}))
	require.NoError(t, err)
	d.Dispatch("test", message("a@example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)
}
