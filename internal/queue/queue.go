package queue

import (
	"sync"
)

type Job struct {
	Fn   func() error
	Errc chan error
}

// Manager is a bounded worker pool. HTTP handlers run their work through it
// to cap concurrency, and the Redis event mirror uses it to keep publishing
// off the routing hot path.
type Manager struct {
	JobQueue   chan Job
	MaxWorkers int
	wg         sync.WaitGroup
}

func NewManager(queueSize int, maxWorkers int) *Manager {
	manager := &Manager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
	}
	manager.startWorkers()
	return manager
}

func (m *Manager) startWorkers() {
	for i := 0; i < m.MaxWorkers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for job := range m.JobQueue {
				err := job.Fn()
				if job.Errc != nil {
					job.Errc <- err
				}
			}
		}()
	}
}

func (m *Manager) EnqueueJob(job Job) {
	m.JobQueue <- job
}

// TryEnqueueJob enqueues without blocking; it reports false when the queue is
// full so best-effort producers can drop instead of stalling.
func (m *Manager) TryEnqueueJob(job Job) bool {
	select {
	case m.JobQueue <- job:
		return true
	default:
		return false
	}
}

func (m *Manager) Shutdown() {
	close(m.JobQueue)
	m.wg.Wait()
}
