package composer

import (
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Scheduler runs recompute tasks off the caller's goroutine.
type Scheduler interface {
	// Schedule runs task asynchronously.
	//
	// Parameters:
	//   - task: the work to run
	Schedule(task func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(task func())

// Schedule calls f(task).
func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}

// poolScheduler submits tasks to a dynamic worker pool.
type poolScheduler struct {
	pool   worker.DynamicWorkerPool
	nextID atomic.Int64
}

// newPoolScheduler creates a scheduler backed by a worker pool with the given number of workers.
func newPoolScheduler(workers int) *poolScheduler {
	return &poolScheduler{
		pool: worker.NewDynamicWorkerPool(max(workers, 1), 64, 1*time.Second),
	}
}

func (p *poolScheduler) Schedule(task func()) {
	p.pool.SubmitTask(worker.Task{
		ID: int(p.nextID.Add(1)),
		Do: func() (any, error) {
			task()
			return nil, nil
		},
	})
}

func (p *poolScheduler) stop() {
	p.pool.Stop()
}
