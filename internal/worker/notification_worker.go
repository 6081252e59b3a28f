package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/classroom-service/internal/events"
)

// ErrQueueFull is returned to the dispatcher when an event is dropped.
var ErrQueueFull = errors.New("notification queue full")

// Notifier delivers a single event.
type Notifier interface {
	Handle(ctx context.Context, event events.Event) error
}

// NotificationWorker moves event delivery off the request path. Events are
// buffered and delivered in publication order by one goroutine.
type NotificationWorker struct {
	notifier Notifier
	queue    chan events.Event
	logger   *zap.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewNotificationWorker creates a worker with room for bufferSize pending events.
func NewNotificationWorker(notifier Notifier, bufferSize int, logger *zap.Logger) *NotificationWorker {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		notifier: notifier,
		queue:    make(chan events.Event, bufferSize),
		logger:   logger,
		timeout:  5 * time.Second,
	}
}

// Register subscribes the worker to every event type.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	for _, eventType := range events.All {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start delivers queued events until ctx is done, then flushes what is
// already queued.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event := <-w.queue:
				w.deliver(event)
			case <-ctx.Done():
				w.flush()
				return
			}
		}
	}()
}

// Wait blocks until the worker has stopped.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) flush() {
	for {
		select {
		case event := <-w.queue:
			w.deliver(event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(event events.Event) {
	// Request contexts are gone by now; each delivery gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.notifier.Handle(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
