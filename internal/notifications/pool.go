package notifications

import (
	"context"
	"sync"

	"ticketpoint/pkg/logger"
	"ticketpoint/pkg/metrics"

	"github.com/google/uuid"
)

type WorkerPoolConfig struct {
	Workers   int
	QueueSize int
	Retry     RetryPolicy
}

// WorkerPool runs deliveries in-process on a bounded queue
type WorkerPool struct {
	handler TaskHandler
	config  WorkerPoolConfig
	log     *logger.Logger

	tasks   chan DeliveryTask
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func NewWorkerPool(handler TaskHandler, cfg WorkerPoolConfig, log *logger.Logger) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &WorkerPool{
		handler: handler,
		config:  cfg,
		log:     log.WithComponent("delivery_pool"),
		tasks:   make(chan DeliveryTask, cfg.QueueSize),
	}
}

// Start launches the workers. Tasks dispatched earlier wait in the queue.
func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}

	p.log.Info("Delivery workers started", "workers", p.config.Workers, "queue_size", p.config.QueueSize)
}

func (p *WorkerPool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for task := range p.tasks {
		metrics.SetDeliveryQueueDepth(len(p.tasks))
		if _, err := executeWithRetry(ctx, p.config.Retry, p.handler, task, p.log); err != nil {
			p.log.Warn("Delivery dropped",
				"worker", workerID,
				"booking_id", task.BookingID.String(),
				"error", err.Error(),
			)
		}
	}
}

// DispatchTicket enqueues a delivery without blocking
func (p *WorkerPool) DispatchTicket(ctx context.Context, bookingID uuid.UUID) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- NewDeliveryTask(bookingID):
		metrics.SetDeliveryQueueDepth(len(p.tasks))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Stop refuses new tasks and waits for queued ones. When ctx expires first,
// in-flight retries are aborted.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		<-done
		return ctx.Err()
	}

	if p.cancel != nil {
		p.cancel()
	}
	p.log.Info("Delivery workers stopped")
	return nil
}
