package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrPoolNotRunning is returned when submitting to a stopped pool
var ErrPoolNotRunning = errors.New("scheduler: task pool is not running")

// task is one queued unit of background work
type task struct {
	name string
	run  func(ctx context.Context)
}

// PoolConfig holds task pool configuration
type PoolConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// DefaultPoolConfig returns defaults sized for webhook-driven side
// effects: small bursts, short tasks
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:     4,
		QueueSize:   256,
		TaskTimeout: 30 * time.Second,
	}
}

// TaskPool runs fire-and-forget work off the request path: CRM pushes
// and reindex triggers. The queue is bounded and Submit never blocks;
// when the queue is full the task is dropped and the caller is told so.
type TaskPool struct {
	config PoolConfig
	logger *zap.Logger

	tasks   chan task
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// mu guards isRunning and, held for writing, the close of tasks.
	// Submit sends while holding the read side so a send can never
	// race the close.
	mu        sync.RWMutex
	isRunning bool
}

// NewTaskPool creates a task pool. Call Start before submitting.
func NewTaskPool(config PoolConfig, logger *zap.Logger) *TaskPool {
	if config.Workers <= 0 {
		config.Workers = DefaultPoolConfig().Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultPoolConfig().QueueSize
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = DefaultPoolConfig().TaskTimeout
	}
	return &TaskPool{
		config: config,
		logger: logger.Named("taskpool"),
		tasks:  make(chan task, config.QueueSize),
	}
}

// Start launches the worker goroutines
func (p *TaskPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return
	}
	p.isRunning = true
	p.baseCtx, p.cancel = context.WithCancel(context.Background())

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("Task pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize))
}

// Submit queues a task without blocking. Returns false when the pool is
// stopped or the queue is full; the task is then dropped.
func (p *TaskPool) Submit(name string, run func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.isRunning {
		return false
	}

	// The send is non-blocking, so holding the read lock across it is
	// cheap; it excludes only the close in Stop.
	select {
	case p.tasks <- task{name: name, run: run}:
		return true
	default:
		return false
	}
}

// Stop drains the queue and waits for in-flight tasks. When ctx expires
// before the drain completes, remaining tasks are cancelled through
// their task context.
func (p *TaskPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Task pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("Task pool stop timed out, tasks cancelled")
		<-done
		return ctx.Err()
	}
}

func (p *TaskPool) worker(workerID int) {
	defer p.wg.Done()

	for t := range p.tasks {
		taskCtx, cancel := context.WithTimeout(p.baseCtx, p.config.TaskTimeout)
		p.logger.Debug("Task running",
			zap.Int("worker_id", workerID),
			zap.String("task", t.name))
		t.run(taskCtx)
		cancel()
	}
}
