package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/moodmelody/internal/core/domain"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
	"github.com/ewilliams-labs/moodmelody/internal/observability"
	"github.com/ewilliams-labs/moodmelody/internal/worker"
)

var (
	// ErrCaptureActive is returned when a recording is already in progress.
	ErrCaptureActive = errors.New("orchestrator: capture already active")
	// ErrNoCapture is returned by StopCapture without a recording.
	ErrNoCapture = errors.New("orchestrator: no active capture")
	// ErrEmptyQuery is returned by ManualSearch for blank input.
	ErrEmptyQuery = errors.New("orchestrator: empty search query")
	// ErrEmptyFile is returned by SelectFile for an artifact without data.
	ErrEmptyFile = errors.New("orchestrator: empty audio file")
	// ErrBusy is returned when the job queue is full.
	ErrBusy = errors.New("orchestrator: too many pending requests")
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 8
	historyTimeout   = 5 * time.Second
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records capture, upload and stale-drop metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithHistory appends completed recommendations to repo.
func WithHistory(repo ports.HistoryRepository) Option {
	return func(o *Orchestrator) {
		o.history = repo
	}
}

// WithWorkers sizes the background pool.
func WithWorkers(workers, queueSize int) Option {
	return func(o *Orchestrator) {
		if workers > 0 {
			o.workers = workers
		}
		if queueSize > 0 {
			o.queueSize = queueSize
		}
	}
}

// Orchestrator coordinates capture, prediction upload and catalog search for
// a single user session. Every user action bumps the generation; results of
// superseded generations are dropped.
type Orchestrator struct {
	recorder  ports.Recorder
	predictor ports.Predictor
	catalog   ports.CatalogSearcher
	history   ports.HistoryRepository
	metrics   *observability.Metrics
	workers   int
	queueSize int
	pool      *worker.Pool

	mu      sync.Mutex
	state   State
	capture ports.CaptureSession
	closed  bool

	// notifyMu serializes deliveries so subscribers see states in order.
	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int
}

// NewOrchestrator constructs an Orchestrator and starts its worker pool.
func NewOrchestrator(recorder ports.Recorder, predictor ports.Predictor, catalog ports.CatalogSearcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		recorder:  recorder,
		predictor: predictor,
		catalog:   catalog,
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
		state:     idleState(0),
		subs:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.pool = worker.NewPool(o.handleJob, o.queueSize)
	o.pool.Start(o.workers)
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs synchronously and must not call back into o.
func (o *Orchestrator) Subscribe(fn func(State)) (unsubscribe func()) {
	o.notifyMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.notifyMu.Lock()
			delete(o.subs, id)
			o.notifyMu.Unlock()
		})
	}
}

// StartCapture begins a new microphone recording. It supersedes any result
// shown or in flight.
func (o *Orchestrator) StartCapture(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return worker.ErrStopped
	}
	if o.state.Capture.Active() {
		o.mu.Unlock()
		return ErrCaptureActive
	}
	gen := o.advanceLocked(StatusLoading, domain.SourceCapture)
	o.state.Capture = domain.CaptureRecording
	session := o.recorder.NewSession(func(artifact domain.AudioArtifact, err error) {
		o.captureDone(gen, artifact, err)
	})
	o.capture = session
	o.mu.Unlock()

	log.Printf("orchestrator: starting capture (generation %d)", gen)
	if err := session.Start(ctx); err != nil {
		log.Printf("WARN orchestrator: capture start failed: %v", err)
		o.mu.Lock()
		if o.state.Generation == gen {
			o.capture = nil
			o.state.Status = StatusIdle
			o.state.Capture = session.State()
			o.state.Err = err.Error()
		}
		o.mu.Unlock()
		o.metrics.ObserveCapture(observability.OutcomeError, 0)
		o.publish()
		return err
	}
	o.publish()
	return nil
}

// StopCapture ends the active recording. Its artifact is uploaded once the
// session finishes.
func (o *Orchestrator) StopCapture() error {
	o.mu.Lock()
	session := o.capture
	o.mu.Unlock()
	if session == nil {
		return ErrNoCapture
	}
	if err := session.Stop(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.capture == session && o.state.Capture == domain.CaptureRecording {
		o.state.Capture = domain.CaptureStopping
	}
	o.mu.Unlock()
	o.publish()
	return nil
}

// SelectFile uploads a ready artifact on the same path as a finished
// recording. An active recording is discarded.
func (o *Orchestrator) SelectFile(artifact domain.AudioArtifact) error {
	if artifact.Size() == 0 {
		return ErrEmptyFile
	}
	if artifact.Source == "" {
		artifact.Source = domain.SourceFile
	}
	return o.dispatch(artifact.Source, worker.Job{Kind: worker.KindUpload, Artifact: artifact})
}

// ManualSearch queries the catalog with text as the emotion label, skipping
// prediction.
func (o *Orchestrator) ManualSearch(text string) error {
	label := strings.TrimSpace(text)
	if label == "" {
		return ErrEmptyQuery
	}
	return o.dispatch(domain.SourceManual, worker.Job{Kind: worker.KindSearch, Label: label})
}

// Clear resets the session to idle. In-flight work keeps running but its
// results are dropped.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	gen := o.state.Generation + 1
	o.state = idleState(gen)
	session := o.capture
	o.capture = nil
	o.mu.Unlock()

	closeSession(session)
	log.Printf("orchestrator: cleared (generation %d)", gen)
	o.publish()
}

// History returns up to limit recent recommendations, newest first.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if o.history == nil {
		return []domain.HistoryEntry{}, nil
	}
	entries, err := o.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load history: %w", err)
	}
	return entries, nil
}

// HistoryEntry returns one stored recommendation.
func (o *Orchestrator) HistoryEntry(ctx context.Context, id string) (domain.HistoryEntry, error) {
	if o.history == nil {
		return domain.HistoryEntry{}, domain.ErrNotFound
	}
	return o.history.GetByID(ctx, id)
}

// Close releases the microphone, refuses new actions and waits for queued
// jobs to drain.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	session := o.capture
	o.capture = nil
	o.mu.Unlock()

	closeSession(session)
	o.pool.Stop()
}

// dispatch supersedes the current generation and queues job for it.
func (o *Orchestrator) dispatch(source string, job worker.Job) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return worker.ErrStopped
	}
	gen := o.advanceLocked(StatusLoading, source)
	session := o.capture
	o.capture = nil
	o.mu.Unlock()

	closeSession(session)
	o.publish()

	job.Generation = gen
	if err := o.enqueue(job); err != nil {
		o.publish()
		return err
	}
	return nil
}

// advanceLocked starts a new generation with cleared results; mu must be held.
func (o *Orchestrator) advanceLocked(status Status, source string) uint64 {
	gen := o.state.Generation + 1
	o.state = idleState(gen)
	o.state.Status = status
	o.state.Source = source
	return gen
}

func (o *Orchestrator) enqueue(job worker.Job) error {
	id, err := o.pool.Submit(job)
	if err != nil {
		log.Printf("WARN orchestrator: cannot queue %s job (generation %d): %v", job.Kind, job.Generation, err)
		o.mu.Lock()
		if o.state.Generation == job.Generation {
			o.state.Status = StatusIdle
			o.state.Err = ErrBusy.Error()
		}
		o.mu.Unlock()
		if errors.Is(err, worker.ErrQueueFull) {
			return ErrBusy
		}
		return err
	}
	log.Printf("DEBUG orchestrator: queued %s job %s (generation %d)", job.Kind, id, job.Generation)
	return nil
}

func (o *Orchestrator) captureDone(gen uint64, artifact domain.AudioArtifact, err error) {
	switch {
	case err == nil:
		o.metrics.ObserveCapture(observability.OutcomeOK, artifact.Duration)
	case errors.Is(err, domain.ErrEmptyCapture):
		o.metrics.ObserveCapture(observability.OutcomeEmpty, 0)
	default:
		o.metrics.ObserveCapture(observability.OutcomeError, 0)
	}

	o.mu.Lock()
	if o.state.Generation != gen {
		o.mu.Unlock()
		o.dropStale("capture", gen)
		return
	}
	o.capture = nil
	if err != nil {
		o.state.Status = StatusIdle
		o.state.Capture = domain.CaptureFailed
		o.state.Err = err.Error()
		o.mu.Unlock()
		log.Printf("WARN orchestrator: capture failed, nothing to upload: %v", err)
		o.publish()
		return
	}
	o.state.Capture = domain.CaptureFinished
	o.mu.Unlock()
	o.publish()

	if err := o.enqueue(worker.Job{Kind: worker.KindUpload, Generation: gen, Artifact: artifact}); err != nil {
		o.publish()
	}
}

func (o *Orchestrator) handleJob(ctx context.Context, job worker.Job) {
	switch job.Kind {
	case worker.KindUpload:
		o.runUpload(ctx, job)
	case worker.KindSearch:
		o.runSearch(ctx, job, job.Label, "")
	default:
		log.Printf("WARN orchestrator: unknown job kind %q", job.Kind)
	}
}

func (o *Orchestrator) runUpload(ctx context.Context, job worker.Job) {
	if !o.current(job.Generation) {
		o.dropStale("upload", job.Generation)
		return
	}

	started := time.Now()
	result, err := o.predictor.Upload(ctx, job.Artifact)
	outcome := observability.OutcomeOK
	if err != nil {
		outcome = observability.OutcomeError
	}
	o.metrics.ObserveUpload(outcome, time.Since(started))

	o.mu.Lock()
	if o.state.Generation != job.Generation {
		o.mu.Unlock()
		o.dropStale("upload", job.Generation)
		return
	}
	if err != nil {
		o.state.Status = StatusResults
		o.state.Result = domain.UploadFailedResult()
		o.state.Tracks = []domain.Track{}
		o.mu.Unlock()
		log.Printf("WARN orchestrator: upload failed: %v", err)
		o.publish()
		return
	}
	o.state.Result = result

	label, ok := result.Majority()
	if !ok {
		o.state.Status = StatusResults
		o.state.Tracks = []domain.Track{}
		o.mu.Unlock()
		log.Printf("WARN orchestrator: no majority emotion in prediction result %v", result)
		o.publish()
		return
	}
	o.state.Label = label
	o.state.Mood = domain.MoodMessage(label)
	o.mu.Unlock()
	o.publish()

	o.runSearch(ctx, job, label, domain.MoodMessage(label))
}

func (o *Orchestrator) runSearch(ctx context.Context, job worker.Job, label, mood string) {
	if !o.current(job.Generation) {
		o.dropStale("catalog", job.Generation)
		return
	}

	tracks, err := o.catalog.SearchByEmotion(ctx, label)
	if err != nil {
		log.Printf("WARN orchestrator: catalog query for %q failed: %v", label, err)
		tracks = nil
	}
	if tracks == nil {
		tracks = []domain.Track{}
	}

	o.mu.Lock()
	if o.state.Generation != job.Generation {
		o.mu.Unlock()
		o.dropStale("catalog", job.Generation)
		return
	}
	o.state.Status = StatusResults
	o.state.Label = label
	o.state.Mood = mood
	o.state.Tracks = tracks
	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		Source:    o.state.Source,
		Label:     label,
		Result:    o.state.Result,
		Tracks:    tracks,
		CreatedAt: time.Now().UTC(),
	}
	o.mu.Unlock()
	o.publish()

	if err == nil {
		log.Printf("orchestrator: %d tracks for %q (generation %d)", len(tracks), label, job.Generation)
		o.saveHistory(ctx, entry)
	}
}

func (o *Orchestrator) saveHistory(ctx context.Context, entry domain.HistoryEntry) {
	if o.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := o.history.Save(ctx, entry); err != nil {
		log.Printf("WARN orchestrator: failed to save history entry %s: %v", entry.ID, err)
	}
}

func (o *Orchestrator) current(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Generation == gen
}

func (o *Orchestrator) dropStale(stage string, gen uint64) {
	o.metrics.ObserveStale(stage)
	log.Printf("DEBUG orchestrator: dropping stale %s result (generation %d)", stage, gen)
}

func (o *Orchestrator) publish() {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	if len(o.subs) == 0 {
		return
	}
	snapshot := o.Snapshot()
	for _, fn := range o.subs {
		fn(snapshot)
	}
}

func closeSession(session ports.CaptureSession) {
	if session == nil {
		return
	}
	if err := session.Close(); err != nil {
		log.Printf("WARN orchestrator: closing capture session: %v", err)
	}
}
