package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/lsearchy/internal/address"
	"github.com/dgallion1/lsearchy/internal/config"
	"github.com/dgallion1/lsearchy/internal/parser"
)

// Orchestrator runs API-submitted scans on a fixed set of goroutines.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	registry *parser.Registry
	stats    *ExtractStats
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the scan queue. Call Start to begin processing.
func NewOrchestrator(cfg config.Config, reg *parser.Registry, stats *ExtractStats, log *slog.Logger) *Orchestrator {
	if stats == nil {
		stats = NewExtractStats(time.Hour)
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		registry: reg,
		stats:    stats,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches scan worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.ScanWorkers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.runJob(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
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
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels running scans and waits for workers to exit.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new scan.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail(StatusFailed, "queue_full")
		return fmt.Errorf("scan queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the extraction latency tracker shared by all scans.
func (o *Orchestrator) Stats() *ExtractStats {
	return o.stats
}

func (o *Orchestrator) runJob(ctx context.Context, job *Job) {
	log := o.log.With("scan_id", job.ID, "root", job.Root)
	job.SetStatus(StatusRunning)

	cfg := o.cfg
	if job.Mode != "" {
		cfg.Mode = job.Mode
	}
	if job.Workers > 0 {
		cfg.Workers = job.Workers
	}

	engine := NewEngine(cfg, o.registry, log)
	engine.Stats = o.stats

	start := time.Now()
	snap, err := engine.Run(ctx, job.Root, address.NewQuery(job.Query))
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Info("scan cancelled", "error", err)
		job.Fail(StatusCancelled, err.Error())
	case err != nil:
		log.Error("scan failed", "error", err)
		job.Fail(StatusFailed, err.Error())
	default:
		log.Info("scan complete",
			"addresses", len(snap.Addresses),
			"records", len(snap.Records),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		job.Complete(snap)
	}
}
