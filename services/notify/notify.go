package notify

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/trezcool/academia/core"
)

// Delivery outcomes
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// ErrQueueFull is recorded for each message of a batch dropped because the queue is full.
var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notification dispatcher closed")
)

type (
	// Result is the outcome of one dispatched message.
	Result struct {
		Kind      string
		Recipient string
		Outcome   string
		Err       error
		Duration  time.Duration
	}

	// Recorder observes dispatch results. Implementations must be safe for concurrent use.
	Recorder interface {
		Record(Result)
	}

	RecorderFunc func(Result)

	Options struct {
		Workers       int
		QueueSize     int     // pending batches; a batch is never split or truncated
		RatePerSecond float64 // <= 0 means unlimited
		SendTimeout   time.Duration
	}

	job struct {
		kind string
		msg  *core.EmailMessage
	}

	batch struct {
		kind string
		msgs []*core.EmailMessage
	}

	// Dispatcher delivers batches of messages in the background with a fixed number of workers.
	// Dispatch never blocks the caller.
	Dispatcher struct {
		mailer    core.EmailService
		logger    core.Logger
		recorders []Recorder
		timeout   time.Duration
		limiter   *rate.Limiter

		mu      sync.RWMutex
		closed  bool
		batches chan batch
		jobs    chan job

		ctx    context.Context
		cancel context.CancelFunc
		group  *errgroup.Group
	}
)

func (f RecorderFunc) Record(res Result) { f(res) }

func OptionsFromConfig(conf core.NotifyConfig) Options {
	return Options{
		Workers:       conf.Workers,
		QueueSize:     conf.QueueSize,
		RatePerSecond: conf.RatePerSecond,
		SendTimeout:   conf.SendTimeout,
	}
}

// NewDispatcher starts `opts.Workers` workers sending through `mailer`.
func NewDispatcher(mailer core.EmailService, logger core.Logger, opts Options, recorders ...Recorder) (*Dispatcher, error) {
	if err := vala.BeginValidation().Validate(
		core.IsNotNil(mailer, "mailer"),
		core.IsNotNil(logger, "logger"),
		vala.GreaterThan(opts.Workers, 0, "opts.Workers"),
		vala.GreaterThan(opts.QueueSize, -1, "opts.QueueSize"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "notify.NewDispatcher")
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	d := &Dispatcher{
		mailer:    mailer,
		logger:    logger,
		recorders: recorders,
		timeout:   opts.SendTimeout,
		limiter:   rate.NewLimiter(limit, opts.Workers),
		batches:   make(chan batch, opts.QueueSize),
		jobs:      make(chan job),
		ctx:       gctx,
		cancel:    cancel,
		group:     group,
	}
	d.group.Go(d.feed)
	for i := 0; i < opts.Workers; i++ {
		d.group.Go(d.work)
	}
	return d, nil
}

// Dispatch enqueues `msgs` as one batch and returns immediately.
// A queued batch is delivered in full. It reports false when the whole batch was dropped;
// each dropped message is recorded like any other outcome.
func (d *Dispatcher) Dispatch(kind string, msgs ...*core.EmailMessage) bool {
	if len(msgs) == 0 {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(kind, msgs, ErrClosed)
		return false
	}
	select {
	case d.batches <- batch{kind: kind, msgs: msgs}:
		return true
	default:
		d.drop(kind, msgs, ErrQueueFull)
		return false
	}
}

func (d *Dispatcher) drop(kind string, msgs []*core.EmailMessage, err error) {
	for _, msg := range msgs {
		d.record(Result{Kind: kind, Recipient: recipientOf(msg), Outcome: OutcomeDropped, Err: err})
	}
}

// Shutdown stops accepting messages and waits for the queued ones to be sent.
// When `ctx` is done first, in-flight sends are cancelled and the remaining messages are abandoned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.batches)
	}
	d.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- d.group.Wait() }()

	select {
	case err := <-done:
		d.cancel()
		return err
	case <-ctx.Done():
		d.cancel()
		<-done
		return errors.Wrap(ctx.Err(), "draining notification queue")
	}
}

// feed hands the messages of each queued batch to the workers.
func (d *Dispatcher) feed() error {
	defer close(d.jobs)
	for b := range d.batches {
		for _, msg := range b.msgs {
			d.jobs <- job{kind: b.kind, msg: msg}
		}
	}
	return nil
}

func (d *Dispatcher) work() error {
	for j := range d.jobs {
		d.send(j)
	}
	return nil
}

func (d *Dispatcher) send(j job) {
	res := Result{Kind: j.kind, Recipient: recipientOf(j.msg)}
	start := time.Now()

	if err := d.limiter.Wait(d.ctx); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = core.NewDeliveryError(res.Recipient, err)
		d.record(res)
		return
	}

	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := d.mailer.Send(ctx, j.msg)
	res.Duration = time.Since(start)
	if err != nil {
		var dErr *core.DeliveryError
		if !errors.As(err, &dErr) {
			err = core.NewDeliveryError(res.Recipient, err)
		}
		res.Outcome = OutcomeFailed
		res.Err = err
	} else {
		res.Outcome = OutcomeDelivered
	}
	d.record(res)
}

func (d *Dispatcher) record(res Result) {
	switch res.Outcome {
	case OutcomeDelivered:
		d.logger.Debug("notification delivered", map[string]interface{}{"kind": res.Kind, "recipient": res.Recipient})
	default:
		d.logger.Warn("notification "+res.Outcome, res.Err, map[string]interface{}{"kind": res.Kind, "recipient": res.Recipient})
	}
	for _, r := range d.recorders {
		r.Record(res)
	}
}

func recipientOf(msg *core.EmailMessage) string {
	if msg == nil || len(msg.To) == 0 {
		return ""
	}
	return msg.To[0].Address
}
