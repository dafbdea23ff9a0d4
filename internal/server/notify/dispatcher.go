package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("dispatcher closed")

// Observer is told how each message ended. metrics.Metrics implements it.
type Observer interface {
	NotificationDelivered(kind string)
	NotificationFailed(kind string)
	NotificationDropped(kind string)
}

type nopObserver struct{}

func (nopObserver) NotificationDelivered(string) {}
func (nopObserver) NotificationFailed(string)    {}
func (nopObserver) NotificationDropped(string)   {}

// DispatcherConfig sizes the queue and worker pool.
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher hands messages to a Sink from a bounded queue served by a fixed
// pool of workers. Enqueue never blocks: when the queue is full the message
// is dropped and logged. Failed deliveries are logged and not retried.
type Dispatcher struct {
	sink     Sink
	logger   logging.Logger
	observer Observer
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Message
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, l logging.Logger, cfg DispatcherConfig, obs Observer) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if obs == nil {
		obs = nopObserver{}
	}

	d := &Dispatcher{
		sink:     sink,
		logger:   l.With("module", "notify"),
		observer: obs,
		timeout:  cfg.SendTimeout,
		queue:    make(chan Message, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules msg for delivery and reports whether it was accepted.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn(ctx, "notification dropped, dispatcher closed", "kind", msg.Kind)
		d.observer.NotificationDropped(msg.Kind)
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Warn(ctx, "notification dropped, queue full", "kind", msg.Kind)
		d.observer.NotificationDropped(msg.Kind)
		return false
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Send(ctx, msg); err != nil {
		d.logger.Error(ctx, "notification delivery failed", "kind", msg.Kind, "error", err.Error())
		d.observer.NotificationFailed(msg.Kind)
		return
	}
	d.logger.Debug(ctx, "notification delivered", "kind", msg.Kind)
	d.observer.NotificationDelivered(msg.Kind)
}

// Close stops accepting messages and waits for queued ones to be delivered,
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
