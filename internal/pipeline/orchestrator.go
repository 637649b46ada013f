package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/stepdoc/internal/config"
	"github.com/dgallion1/stepdoc/internal/extract"
)

// Orchestrator queues documentation builds and publishes the site model of
// the latest successful one.
type Orchestrator struct {
	builds *BuildStore
	queue  chan *Build
	worker *Worker
	stats  *extract.Stats
	log    *slog.Logger
	cfg    config.Config

	mu   sync.RWMutex
	site *Site

	// Builds write into one output directory, so they never overlap.
	buildMu sync.Mutex

	// queueMu guards sends on queue against Stop closing it.
	queueMu sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("orchestrator stopped")

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(cfg config.Config, project config.Project, log *slog.Logger) *Orchestrator {
	stats := extract.NewStats(cfg.JobTTL)
	return &Orchestrator{
		builds: NewBuildStore(cfg.JobTTL),
		queue:  make(chan *Build, cfg.MaxQueueSize),
		worker: NewWorker(project, stats, log, cfg.MaxConcurrentExtract),
		stats:  stats,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches the build worker.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case b, ok := <-o.queue:
				if !ok {
					return
				}
				o.run(workerCtx, b)
			}
		}
	}()

	// Start build store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.builds.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.queueMu.Lock()
	if o.stopped {
		o.queueMu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.queueMu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new build.
func (o *Orchestrator) Submit(trigger string) (*Build, error) {
	o.queueMu.Lock()
	defer o.queueMu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}

	b := NewBuild(uuid.NewString(), trigger)
	o.builds.Put(b)
	select {
	case o.queue <- b:
		return b, nil
	default:
		b.AddError("build queue is full")
		b.SetStatus(StatusFailed, "queue_full")
		return b, fmt.Errorf("build queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// BuildNow runs a build on the calling goroutine and returns it finished.
func (o *Orchestrator) BuildNow(ctx context.Context, trigger string) *Build {
	b := NewBuild(uuid.NewString(), trigger)
	o.builds.Put(b)
	o.run(ctx, b)
	return b
}

func (o *Orchestrator) run(ctx context.Context, b *Build) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	prev := ""
	if s := o.Site(); s != nil {
		prev = s.Fingerprint
	}
	if site := o.worker.Process(ctx, b, prev); site != nil {
		o.mu.Lock()
		o.site = site
		o.mu.Unlock()
	}
}

// Site returns the model of the latest successful build, or nil.
func (o *Orchestrator) Site() *Site {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.site
}

// GetBuild returns a build by ID.
func (o *Orchestrator) GetBuild(id string) *Build {
	return o.builds.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the extraction latency tracker shared by all builds.
func (o *Orchestrator) Stats() *extract.Stats {
	return o.stats
}
