// Package engine implements the media-analysis scheduling core: three
// bounded priority queues with dedicated worker goroutines, a concurrency-safe
// result store tracking each job's lifecycle, synchronous wait/poll helpers,
// periodic cleanup, and graceful drain on shutdown.
//
// The engine does not guarantee strict global priority ordering. Each tier
// owns a fixed slice of processing capacity instead, so critical work is
// never starved by a normal-priority backlog but does not preempt in-flight
// jobs either.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bhanukaranwal/Satyashield/internal/config"
	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// StatusListener is invoked with a snapshot of the record after every status
// transition. Listeners must not block for long; they run on the submitting
// or processing goroutine.
type StatusListener func(rec *models.AnalysisRecord)

// Submission carries the caller-supplied fields of a new analysis job.
type Submission struct {
	FileRef     string
	FileKind    models.FileKind
	SubmittedBy string
	Priority    models.Priority
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithModelLocator makes Start resolve modelName through loc before any
// worker is launched.
func WithModelLocator(loc models.ModelLocator, modelName string) Option {
	return func(e *Engine) {
		e.locator = loc
		e.modelName = modelName
	}
}

// WithStatusListener registers a transition listener (e.g. a Redis status
// mirror or a terminal-record archiver).
func WithStatusListener(fn StatusListener) Option {
	return func(e *Engine) { e.listener = fn }
}

// Engine is the scheduler and lifecycle controller.
type Engine struct {
	cfg      config.EngineConfig
	detector models.Detector
	locator  models.ModelLocator
	listener StatusListener

	modelName string
	modelPath string

	queues  tierQueues
	results *resultStore

	workers  sync.WaitGroup
	inFlight sync.WaitGroup // accepted jobs not yet terminal

	// intakeMu orders Submit's draining check + inFlight.Add against
	// Shutdown flipping draining. Once Shutdown holds the write lock every
	// accepted submission is already counted in inFlight, so inFlight.Wait
	// covers submitters blocked on a full queue and closeAll can never race
	// a send.
	intakeMu sync.RWMutex

	started   atomic.Bool
	draining  atomic.Bool
	stop      chan struct{} // closed when shutdown begins
	drainOnce sync.Once
	closeOnce sync.Once

	log *slog.Logger
}

// New builds an engine around the given detector. Zero-valued config fields
// fall back to the package defaults (2 workers per tier, 100/50/20 queue
// capacities, 24h retention, 250ms wait poll).
func New(cfg config.EngineConfig, detector models.Detector, opts ...Option) *Engine {
	if cfg.WorkersPerTier <= 0 {
		cfg.WorkersPerTier = 2
	}
	if cfg.NormalQueueCap <= 0 {
		cfg.NormalQueueCap = 100
	}
	if cfg.HighQueueCap <= 0 {
		cfg.HighQueueCap = 50
	}
	if cfg.CriticalQueueCap <= 0 {
		cfg.CriticalQueueCap = 20
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.WaitPollInterval <= 0 {
		cfg.WaitPollInterval = 250 * time.Millisecond
	}

	e := &Engine{
		cfg:      cfg,
		detector: detector,
		queues:   newTierQueues(cfg.NormalQueueCap, cfg.HighQueueCap, cfg.CriticalQueueCap),
		results:  newResultStore(),
		stop:     make(chan struct{}),
		log:      slog.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start resolves the model path (once), launches the per-tier workers and the
// cleanup janitor, and marks the engine ready.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if e.locator != nil {
		path, err := e.locator.Resolve(ctx, e.modelName)
		if err != nil {
			e.started.Store(false)
			return fmt.Errorf("resolve model %q: %w", e.modelName, err)
		}
		e.modelPath = path
		e.log.Info("model resolved", "model", e.modelName, "path", path)
	}

	for _, tier := range models.Tiers {
		for i := 0; i < e.cfg.WorkersPerTier; i++ {
			e.workers.Add(1)
			go e.worker(tier, i)
		}
	}

	if e.cfg.CleanupInterval > 0 {
		go e.janitor()
	}

	e.log.Info("engine started",
		"workers_per_tier", e.cfg.WorkersPerTier,
		"detector", e.detector.Name(),
	)
	return nil
}

// Ready reports whether the engine accepts submissions.
func (e *Engine) Ready() bool {
	return e.started.Load() && !e.draining.Load()
}

// Submit validates the submission, assigns an analysis id, records the job as
// queued, and enqueues it on its tier. When the tier's queue is full the call
// blocks until a slot frees (backpressure); the caller's context is the only
// way out, and an abandoned submission leaves no record behind.
func (e *Engine) Submit(ctx context.Context, sub Submission) (string, error) {
	if !e.started.Load() {
		return "", ErrNotStarted
	}
	if !sub.FileKind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFileKind, sub.FileKind)
	}
	if !sub.Priority.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownPriority, sub.Priority)
	}

	req := models.AnalysisRequest{
		AnalysisID:  newAnalysisID(sub.FileRef, sub.SubmittedBy),
		FileRef:     sub.FileRef,
		FileKind:    sub.FileKind,
		SubmittedBy: sub.SubmittedBy,
		Priority:    sub.Priority,
	}

	// The draining check and the inFlight increment form one unit under the
	// intake lock; the blocking enqueue happens outside it so a full queue
	// never holds up Shutdown's write lock.
	e.intakeMu.RLock()
	if e.draining.Load() {
		e.intakeMu.RUnlock()
		return "", ErrShuttingDown
	}
	// The record exists before the descriptor is visible to any worker, so a
	// fast worker can never complete a job whose record is missing.
	rec := e.results.create(req)
	e.inFlight.Add(1)
	e.intakeMu.RUnlock()

	// Queued is notified before the enqueue so listeners see transitions in
	// record order; the worker cannot observe the job earlier.
	e.notify(rec)

	select {
	case e.queues[sub.Priority] <- req:
	case <-e.stop:
		e.results.remove(req.AnalysisID)
		e.inFlight.Done()
		return "", ErrShuttingDown
	case <-ctx.Done():
		// The abandoned id was never returned to the caller; a listener that
		// mirrored the queued snapshot holds an unreachable entry that ages
		// out with its TTL.
		e.results.remove(req.AnalysisID)
		e.inFlight.Done()
		return "", ctx.Err()
	}

	e.log.Info("analysis queued",
		"analysis_id", req.AnalysisID,
		"priority", sub.Priority.String(),
		"file_kind", sub.FileKind,
	)
	return req.AnalysisID, nil
}

// BatchSubmit enqueues each submission sequentially through Submit and
// returns the ids assigned so far. There is no atomicity across the batch: a
// later element failing does not undo earlier enqueues, and each id's own
// terminal status stays authoritative.
func (e *Engine) BatchSubmit(ctx context.Context, subs []Submission) ([]string, error) {
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		id, err := e.Submit(ctx, sub)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetStatus returns the current lifecycle status for id.
func (e *Engine) GetStatus(id string) (string, error) {
	rec, ok := e.results.get(id)
	if !ok {
		return "", ErrNotFound
	}
	return rec.Status, nil
}

// GetResult returns a snapshot of the job record for id.
func (e *Engine) GetResult(id string) (*models.AnalysisRecord, error) {
	rec, ok := e.results.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// WaitForCompletion polls the result store until the record reaches a
// terminal state or the timeout elapses. A timeout abandons the wait only;
// the job keeps running and may still complete later. No lock is held across
// the sleep intervals.
func (e *Engine) WaitForCompletion(ctx context.Context, id string, timeout time.Duration) (*models.AnalysisRecord, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(e.cfg.WaitPollInterval)
	defer ticker.Stop()

	for {
		rec, ok := e.results.get(id)
		if !ok {
			return nil, ErrNotFound
		}
		if rec.IsTerminal() {
			return rec, nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			return nil, fmt.Errorf("%w: analysis %s after %s", ErrWaitTimeout, id, timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Cleanup removes every record whose last update is older than window. It is
// the only deletion path for settled records; the janitor calls it with the
// configured retention.
func (e *Engine) Cleanup(window time.Duration) int {
	removed := e.results.cleanup(window)
	if removed > 0 {
		e.log.Info("cleaned up analysis records", "removed", removed, "window", window.String())
	}
	return removed
}

// Shutdown stops intake, waits for every queued and in-flight job to reach a
// terminal state, then releases the workers. In-flight work is never dropped.
func (e *Engine) Shutdown(ctx context.Context) error {
	if !e.started.Load() {
		return ErrNotStarted
	}

	e.drainOnce.Do(func() {
		e.intakeMu.Lock()
		e.draining.Store(true)
		e.intakeMu.Unlock()
		close(e.stop) // wakes submitters blocked on a full queue
		e.log.Info("engine draining")
	})

	drained := make(chan struct{})
	go func() {
		e.inFlight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	// No submitter can reach a send anymore: new intake is rejected under
	// the lock, and anyone already counted in inFlight has left the select
	// before Wait returned.
	e.closeOnce.Do(func() { e.queues.closeAll() })

	stopped := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.log.Info("engine stopped")
	return nil
}

// worker serves one tier's queue until it is closed. Per-job failures are
// captured into the job's record and never end the loop.
func (e *Engine) worker(tier models.Priority, n int) {
	defer e.workers.Done()
	log := e.log.With("tier", tier.String(), "worker", n)
	for req := range e.queues[tier] {
		e.process(req, log)
	}
}

func (e *Engine) process(req models.AnalysisRequest, log *slog.Logger) {
	defer e.inFlight.Done()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if rec := e.results.fail(req.AnalysisID, fmt.Sprintf("panic: %v", r), time.Since(start)); rec != nil {
				e.notify(rec)
			}
			log.Error("detector panicked", "analysis_id", req.AnalysisID, "panic", r)
		}
	}()

	if rec := e.results.markProcessing(req.AnalysisID); rec != nil {
		e.notify(rec)
	}
	log.Info("analysis processing", "analysis_id", req.AnalysisID, "file_kind", req.FileKind)

	// Jobs run to completion once dequeued; there is no mid-flight
	// cancellation in the lifecycle model.
	det, err := e.detector.Analyze(context.Background(), req.FileRef, req.FileKind)
	elapsed := time.Since(start)

	if err != nil {
		if rec := e.results.fail(req.AnalysisID, err.Error(), elapsed); rec != nil {
			e.notify(rec)
		}
		log.Error("analysis failed",
			"analysis_id", req.AnalysisID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}

	if rec := e.results.complete(req.AnalysisID, det, elapsed); rec != nil {
		e.notify(rec)
	}
	log.Info("analysis completed",
		"analysis_id", req.AnalysisID,
		"verdict", det.Verdict,
		"confidence", det.Confidence,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// janitor runs Cleanup on the configured interval until shutdown.
func (e *Engine) janitor() {
	ticker := time.NewTicker(e.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.Cleanup(e.cfg.Retention)
		case <-e.stop:
			return
		}
	}
}

func (e *Engine) notify(rec *models.AnalysisRecord) {
	if e.listener != nil {
		e.listener(rec)
	}
}
