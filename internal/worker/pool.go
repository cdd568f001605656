// Package worker provides background processing for recommendation jobs.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
)

// ErrQueueFull is returned by Submit when every queue slot is taken.
var ErrQueueFull = errors.New("worker: queue full")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("worker: pool stopped")

// Kind selects what a job does.
type Kind string

const (
	// KindUpload uploads Artifact and then searches the catalog.
	KindUpload Kind = "upload"
	// KindSearch searches the catalog for Label.
	KindSearch Kind = "search"
)

// Job represents one background recommendation task.
type Job struct {
	ID         uuid.UUID
	Kind       Kind
	Generation uint64
	Artifact   domain.AudioArtifact
	Label      string
}

// Handler processes a single job.
type Handler func(ctx context.Context, job Job)

// Pool manages background workers for async jobs.
type Pool struct {
	handler Handler
	jobs    chan Job
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a worker pool with the given handler and queue size.
func NewPool(handler Handler, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		handler: handler,
		jobs:    make(chan Job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop closes the queue, lets workers drain it and waits for them.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

// Submit queues a job without blocking. A zero job ID is filled in.
func (p *Pool) Submit(job Job) (uuid.UUID, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return uuid.Nil, ErrStopped
	}
	select {
	case p.jobs <- job:
		return job.ID, nil
	default:
		log.Printf("WARN worker: dropping %s job %s (generation %d)", job.Kind, job.ID, job.Generation)
		return uuid.Nil, ErrQueueFull
	}
}

func (p *Pool) processJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR worker: %s job %s panicked: %v", job.Kind, job.ID, r)
		}
	}()
	log.Printf("DEBUG worker: processing %s job %s (generation %d)", job.Kind, job.ID, job.Generation)
	p.handler(p.ctx, job)
}
