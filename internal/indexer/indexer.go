package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
	"reelshelf/internal/watcher"
)

// DefaultSchedule is the rescan schedule used when none is configured.
const DefaultSchedule = "@every 30m"

// Scan triggers, also used as metric labels.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerWatcher  = "watcher"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)

// ErrIndexInProgress is returned by Index when another scan is running.
var ErrIndexInProgress = errors.New("index already in progress")

// Config controls the background indexer.
type Config struct {
	Roots       []string
	IgnoreRules []string
	Workers     int
	Fingerprint bool
	// Schedule is a cron spec for periodic rescans. Empty disables them.
	Schedule string
	// Watch starts a filesystem watcher that triggers rescans on change.
	Watch         bool
	WatchDebounce time.Duration
	// SkipInitial disables the scan normally run by Start.
	SkipInitial bool
	// OnProgress, when set, is called after each file of every scan.
	OnProgress func(done, total int)
}

// Indexer runs ScanAndIndex in the background: once at startup, on a cron
// schedule, on watcher events, and on demand. At most one scan runs at a
// time.
type Indexer struct {
	reconciler *Reconciler
	config     Config

	cron    *cron.Cron
	watcher *watcher.Watcher

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	indexMu              sync.Mutex
	isIndexing           bool
	rescanPending        bool
	lastIndexTime        time.Time
	lastRun              *RunResult
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	indexProgress atomic.Value

	onIndexComplete func(RunResult)
}

// IndexProgress tracks the scan in flight.
type IndexProgress struct {
	RunID          string    `json:"runId,omitempty"`
	Trigger        string    `json:"trigger,omitempty"`
	FilesProcessed int       `json:"filesProcessed"`
	TotalFiles     int       `json:"totalFiles"`
	IsIndexing     bool      `json:"isIndexing"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
}

// RunResult describes a finished scan.
type RunResult struct {
	RunID      string    `json:"runId"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns how long the scan took.
func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	Schedule          string         `json:"schedule,omitempty"`
	Watching          bool           `json:"watching"`
	LastRun           *RunResult     `json:"lastRun,omitempty"`
	IndexProgress     *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates an Indexer. Nothing runs until Start or Index.
func New(r *Reconciler, config Config) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	idx := &Indexer{
		reconciler: r,
		config:     config,
		ctx:        ctx,
		cancel:     cancel,
		startTime:  time.Now(),
	}
	idx.indexProgress.Store(IndexProgress{})
	return idx
}

// SetOnIndexComplete sets a callback invoked after every scan, successful
// or not.
func (idx *Indexer) SetOnIndexComplete(callback func(RunResult)) {
	idx.onIndexComplete = callback
}

// Start runs the initial scan in the background and installs the schedule
// and the watcher. An invalid schedule is an error and nothing is started.
func (idx *Indexer) Start() error {
	if idx.config.Schedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(idx.config.Schedule, func() {
			logging.Debug("Scheduled rescan triggered")
			idx.TriggerIndex(TriggerSchedule)
		}); err != nil {
			return fmt.Errorf("invalid scan schedule %q: %w", idx.config.Schedule, err)
		}
		idx.cron = c
	}

	if idx.config.Watch {
		w, err := watcher.New(watcher.Config{
			Roots:       idx.config.Roots,
			IgnoreRules: idx.config.IgnoreRules,
			Debounce:    idx.config.WatchDebounce,
		}, func(paths []string) {
			logging.Info("Watcher saw %d changed files, triggering rescan", len(paths))
			if !idx.TriggerIndex(TriggerWatcher) {
				idx.indexMu.Lock()
				idx.rescanPending = true
				idx.indexMu.Unlock()
			}
		})
		if err != nil {
			logging.Warn("Filesystem watcher unavailable: %v", err)
		} else if err := w.Start(); err != nil {
			logging.Warn("Filesystem watcher failed to start: %v", err)
		} else {
			idx.watcher = w
		}
	}

	if idx.cron != nil {
		idx.cron.Start()
		logging.Info("Rescan schedule: %s", idx.config.Schedule)
	}

	if idx.config.SkipInitial {
		idx.indexMu.Lock()
		idx.initialIndexComplete = true
		idx.indexMu.Unlock()
		return nil
	}

	logging.Info("Starting initial index in background...")
	if !idx.TriggerIndex(TriggerStartup) {
		logging.Info("Index already in progress, skipping initial index")
	}
	return nil
}

// Stop cancels a running scan at the next file boundary, stops the
// schedule and the watcher, and waits for background work to finish.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		idx.cancel()
		if idx.cron != nil {
			<-idx.cron.Stop().Done()
		}
		if idx.watcher != nil {
			idx.watcher.Stop()
		}
		idx.wg.Wait()
	})
}

// Index runs one scan synchronously. It returns ErrIndexInProgress when a
// scan is already running.
func (idx *Indexer) Index(ctx context.Context, trigger string) (RunResult, error) {
	if !idx.tryStartIndexing() {
		return RunResult{}, ErrIndexInProgress
	}
	return idx.run(ctx, trigger)
}

// TriggerIndex starts a scan in the background and reports whether it was
// started. It returns false when a scan is already running or the indexer
// is stopped.
func (idx *Indexer) TriggerIndex(trigger string) bool {
	if idx.ctx.Err() != nil {
		return false
	}
	if !idx.tryStartIndexing() {
		return false
	}

	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		if _, err := idx.run(idx.ctx, trigger); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("%s re-index failed: %v", trigger, err)
		}
	}()
	return true
}

// run does the scan; the caller must have won tryStartIndexing.
func (idx *Indexer) run(ctx context.Context, trigger string) (RunResult, error) {
	result := RunResult{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}

	metrics.ScanIsRunning.Set(1)
	metrics.ScanRunsTotal.WithLabelValues(trigger).Inc()
	idx.indexProgress.Store(IndexProgress{
		RunID:      result.RunID,
		Trigger:    trigger,
		IsIndexing: true,
		StartedAt:  result.StartedAt,
	})
	logging.Info("Starting scan %s (trigger: %s)", result.RunID, trigger)

	summary, err := idx.reconciler.ScanAndIndex(ctx, Options{
		Roots:       idx.config.Roots,
		IgnoreRules: idx.config.IgnoreRules,
		Workers:     idx.config.Workers,
		Fingerprint: idx.config.Fingerprint,
		Progress: func(done, total int) {
			idx.indexProgress.Store(IndexProgress{
				RunID:          result.RunID,
				Trigger:        trigger,
				FilesProcessed: done,
				TotalFiles:     total,
				IsIndexing:     true,
				StartedAt:      result.StartedAt,
			})
			if idx.config.OnProgress != nil {
				idx.config.OnProgress(done, total)
			}
		},
	})

	result.FinishedAt = time.Now()
	result.Summary = summary
	if err != nil {
		result.Error = err.Error()
		if !errors.Is(err, context.Canceled) {
			metrics.ScanErrors.Inc()
		}
	}

	metrics.ScanIsRunning.Set(0)
	metrics.ScanLastRunTimestamp.Set(float64(result.FinishedAt.Unix()))
	metrics.ScanLastRunDuration.Set(result.Duration().Seconds())
	if _, statsErr := idx.reconciler.Database().CollectStats(); statsErr != nil {
		logging.Warn("Failed to refresh catalog stats: %v", statsErr)
	}

	if err != nil {
		logging.Warn("Scan %s stopped after %v: %v", result.RunID, result.Duration(), err)
	} else {
		logging.Info("Scan %s complete in %v: %d files, %d new titles, %d new files, %d duplicates",
			result.RunID, result.Duration(), summary.TotalFiles, summary.NewMovies, summary.NewFiles, summary.Duplicates)
	}

	pending := idx.finishIndexing(result, trigger, err)

	if idx.onIndexComplete != nil {
		idx.onIndexComplete(result)
	}

	if pending {
		logging.Debug("Running rescan requested during scan %s", result.RunID)
		idx.TriggerIndex(TriggerWatcher)
	}

	return result, err
}

// tryStartIndexing attempts to start indexing, returns false if already in progress.
func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

// finishIndexing records the result and reports whether a rescan was
// requested while this one ran.
func (idx *Indexer) finishIndexing(result RunResult, trigger string, err error) bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.lastRun = &result
	if err == nil {
		idx.lastIndexTime = result.FinishedAt
	}
	if trigger == TriggerStartup {
		idx.initialIndexComplete = true
		idx.initialIndexError = err
	}
	idx.indexProgress.Store(IndexProgress{
		RunID:          result.RunID,
		Trigger:        trigger,
		FilesProcessed: result.Summary.TotalFiles,
		TotalFiles:     result.Summary.TotalFiles,
	})

	pending := idx.rescanPending
	idx.rescanPending = false
	return pending && idx.ctx.Err() == nil
}

// IsReady reports whether the initial scan has finished.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// IsIndexing returns whether an index operation is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the time of the last successful scan.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// LastRun returns the most recent finished scan, or nil.
func (idx *Indexer) LastRun() *RunResult {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	if idx.lastRun == nil {
		return nil
	}
	r := *idx.lastRun
	return &r
}

// GetProgress returns the current indexing progress.
func (idx *Indexer) GetProgress() IndexProgress {
	if progress, ok := idx.indexProgress.Load().(IndexProgress); ok {
		return progress
	}
	return IndexProgress{}
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:       idx.initialIndexComplete,
		Indexing:    idx.isIndexing,
		StartTime:   idx.startTime,
		Uptime:      time.Since(idx.startTime).Round(time.Second).String(),
		LastIndexed: idx.lastIndexTime,
		Schedule:    idx.config.Schedule,
		Watching:    idx.watcher != nil,
	}

	if idx.isIndexing {
		progress := idx.GetProgress()
		status.IndexProgress = &progress
	}
	if idx.lastRun != nil {
		r := *idx.lastRun
		status.LastRun = &r
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}

	return status
}
