package orchestrate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/md-toc/pkg/config"
	"github.com/Sriram-PR/md-toc/pkg/fetch"
	"github.com/Sriram-PR/md-toc/pkg/models"
	"github.com/Sriram-PR/md-toc/pkg/process"
	"github.com/Sriram-PR/md-toc/pkg/storage"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// RunOptions control what a run does with every collected file
type RunOptions struct {
	Mode        process.Mode
	Write       bool // Rewrite files in place
	Check       bool // Report stale files, never write
	JSON        bool // Generate mode: JSON output
	Incremental bool // Force incremental mode on for every target
	ResetState  bool // Drop stored state before running
	RetryFailed bool // Also process files whose last run failed
}

// TargetResult contains the result of processing a single target
type TargetResult struct {
	Target   string
	Success  bool
	Error    error
	Files    []models.FileResult
	Report   models.RunReport
	Duration time.Duration
}

// Orchestrator manages parallel processing of multiple targets.
// All targets share one worker budget of appCfg.NumWorkers files in flight,
// and one remote reader so robots.txt and per-host delays apply across targets.
type Orchestrator struct {
	appCfg  *config.AppConfig
	log     *logrus.Entry
	targets []string
	opts    RunOptions

	sem    *semaphore.Weighted
	remote *fetch.Remote

	results   []TargetResult
	resultsMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewOrchestrator creates a new orchestrator for the given targets
func NewOrchestrator(ctx context.Context, appCfg *config.AppConfig, targets []string, opts RunOptions, log *logrus.Entry) *Orchestrator {
	ctx, cancel := context.WithCancel(ctx)
	workers := appCfg.NumWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		appCfg:  appCfg,
		log:     log,
		targets: targets,
		opts:    opts,
		sem:     semaphore.NewWeighted(int64(workers)),
		remote:  fetch.NewRemote(appCfg.Fetch, log),
		results: make([]TargetResult, 0, len(targets)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run processes all targets in parallel and waits for completion.
// Results are returned in target order.
func (o *Orchestrator) Run() []TargetResult {
	startTime := time.Now()
	o.log.Infof("Processing %d targets: %v", len(o.targets), o.targets)

	var wg sync.WaitGroup
	for _, key := range o.targets {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			result := o.runTarget(key)
			o.resultsMu.Lock()
			o.results = append(o.results, result)
			o.resultsMu.Unlock()
		}(key)
	}
	wg.Wait()

	order := make(map[string]int, len(o.targets))
	for i, k := range o.targets {
		order[k] = i
	}
	sort.SliceStable(o.results, func(i, j int) bool {
		return order[o.results[i].Target] < order[o.results[j].Target]
	})

	o.logSummary(time.Since(startTime))
	return o.results
}

// Cancel cancels all running targets
func (o *Orchestrator) Cancel() {
	o.log.Info("Cancelling run...")
	o.cancel()
}

func (o *Orchestrator) runTarget(key string) TargetResult {
	startTime := time.Now()
	result := TargetResult{Target: key}
	targetLog := o.log.WithField("target", key)

	if _, exists := o.appCfg.Targets[key]; !exists {
		result.Error = fmt.Errorf("target '%s' not found in configuration", key)
		targetLog.Error(result.Error)
		return result
	}

	jobs, store, err := o.prepare(key, targetLog)
	if store != nil {
		defer store.Close()
	}
	if err != nil {
		result.Error = err
		targetLog.Errorf("Failed to prepare target: %v", err)
		return result
	}

	var fileStore storage.FileStore
	if store != nil {
		fileStore = store
	}
	processor := process.NewFileProcessor(fileStore, targetLog).WithRemote(o.remote)
	result.Files = ProcessFiles(o.ctx, processor, jobs, o.sem)
	result.Duration = time.Since(startTime)
	result.Report = BuildReport(key, startTime, time.Now(), result.Files)
	result.Success = result.Report.Failed == 0
	if err := o.ctx.Err(); err != nil {
		result.Error = err
		result.Success = false
	}
	return result
}

// prepare opens the target's state store when needed and builds its jobs
func (o *Orchestrator) prepare(key string, targetLog *logrus.Entry) ([]process.Job, *storage.BadgerStore, error) {
	var store *storage.BadgerStore
	var failed []string
	if UsesState(o.appCfg, key, o.opts) {
		var err error
		store, err = storage.NewBadgerStore(o.ctx, o.appCfg.StateDir, key, o.opts.ResetState, targetLog)
		if err != nil {
			return nil, nil, err
		}
	}

	if o.opts.RetryFailed && store != nil {
		var scanErrors int
		var err error
		failed, scanErrors, err = store.ListFailed(o.ctx)
		if err != nil {
			return nil, store, err
		}
		if scanErrors > 0 {
			targetLog.Warnf("%d state entries could not be read", scanErrors)
		}
		targetLog.Debugf("Retrying %d previously failed files", len(failed))
	}

	jobs, err := BuildJobs(o.appCfg, key, o.opts, failed...)
	if err != nil {
		return nil, store, err
	}
	targetLog.Infof("Collected %d files", len(jobs))
	return jobs, store, nil
}

// UsesState reports whether a run with opts keeps incremental state for the target
func UsesState(appCfg *config.AppConfig, key string, opts RunOptions) bool {
	targetCfg, ok := appCfg.Targets[key]
	if !ok || opts.Mode != process.ModeInsert {
		return false
	}
	return opts.Incremental || opts.RetryFailed || config.GetEffectiveIncremental(targetCfg, *appCfg)
}

// BuildJobs collects a target's files and builds one job per file.
// Extra paths are appended when they still exist and were not collected.
func BuildJobs(appCfg *config.AppConfig, key string, opts RunOptions, extra ...string) ([]process.Job, error) {
	targetCfg, exists := appCfg.Targets[key]
	if !exists {
		return nil, fmt.Errorf("%w: target '%s' not found in configuration", utils.ErrConfigValidation, key)
	}
	exclude, err := utils.CompileRegexPatterns(targetCfg.Exclude)
	if err != nil {
		return nil, err
	}
	insertOpts, err := config.InsertOptions(targetCfg, *appCfg)
	if err != nil {
		return nil, err
	}

	files, err := process.CollectFiles(targetCfg.Paths, exclude, opts.Mode == process.ModeGenerate)
	if err != nil {
		return nil, err
	}
	files = mergeExisting(files, extra)

	incremental := opts.Incremental || config.GetEffectiveIncremental(targetCfg, *appCfg)
	selector := config.GetEffectiveContentSelector(targetCfg, *appCfg)
	jobs := make([]process.Job, 0, len(files))
	for _, f := range files {
		jobs = append(jobs, process.Job{
			Path:        f,
			Target:      key,
			Mode:        opts.Mode,
			Insert:      insertOpts,
			Selector:    selector,
			JSON:        opts.JSON,
			Write:       opts.Write,
			Check:       opts.Check,
			Incremental: incremental,
		})
	}
	return jobs, nil
}

// mergeExisting appends paths that still exist and are not already listed
func mergeExisting(files, extra []string) []string {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f] = true
	}
	for _, f := range extra {
		if seen[f] {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		seen[f] = true
		files = append(files, f)
	}
	return files
}

// ProcessFiles runs the jobs with at most sem's weight in flight.
// Results keep job order; jobs not started before cancellation report the context error.
func ProcessFiles(ctx context.Context, p *process.FileProcessor, jobs []process.Job, sem *semaphore.Weighted) []models.FileResult {
	results := make([]models.FileResult, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(jobs); j++ {
				results[j] = models.FileResult{Path: jobs[j].Path, Target: jobs[j].Target, Status: models.FileStatusFailure, Err: err}
			}
			break
		}
		wg.Add(1)
		go func(i int, job process.Job) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = p.Process(ctx, job)
		}(i, job)
	}

	wg.Wait()
	return results
}

// BuildReport tallies file results into a RunReport
func BuildReport(target string, start, end time.Time, results []models.FileResult) models.RunReport {
	report := models.RunReport{
		Target:    target,
		StartTime: start,
		EndTime:   end,
		Files:     make([]models.FileReport, 0, len(results)),
	}
	for _, r := range results {
		fr := models.FileReport{Path: r.Path, Status: r.Status, Headings: r.Headings}
		switch r.Status {
		case models.FileStatusUpdated:
			report.Updated++
		case models.FileStatusUnchanged:
			report.Unchanged++
		case models.FileStatusSkipped:
			report.Skipped++
		case models.FileStatusStale:
			report.Stale++
		default:
			report.Failed++
			fr.ErrorType = utils.CategorizeError(r.Err)
		}
		report.Files = append(report.Files, fr)
	}
	return report
}

// WriteReport writes the reports of a run as YAML
func WriteReport(path string, reports []models.RunReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("%w: encoding run report: %w", utils.ErrParsing, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: writing run report '%s': %w", utils.ErrFilesystem, path, err)
	}
	return nil
}

// logSummary logs a summary of all target results
func (o *Orchestrator) logSummary(totalDuration time.Duration) {
	o.log.Info("============================================")
	o.log.Infof("Run completed in %v", totalDuration)

	successCount, failCount := 0, 0
	var totals models.RunReport
	for _, r := range o.results {
		status := "SUCCESS"
		if !r.Success {
			status = "FAILED"
			failCount++
		} else {
			successCount++
		}
		totals.Updated += r.Report.Updated
		totals.Unchanged += r.Report.Unchanged
		totals.Skipped += r.Report.Skipped
		totals.Stale += r.Report.Stale
		totals.Failed += r.Report.Failed

		o.log.Infof("  %s: %s - %d files in %v", r.Target, status, len(r.Files), r.Duration)
		if r.Error != nil {
			o.log.Infof("    Error: %v", r.Error)
		}
	}

	o.log.Info("--------------------------------------------")
	o.log.Infof("Total: %d targets (%d success, %d failed); files: %d updated, %d unchanged, %d skipped, %d stale, %d failed",
		len(o.results), successCount, failCount,
		totals.Updated, totals.Unchanged, totals.Skipped, totals.Stale, totals.Failed)
	o.log.Info("============================================")
}

// ValidateTargetKeys checks that all provided target keys exist in the config
func ValidateTargetKeys(appCfg *config.AppConfig, keys []string) error {
	for _, key := range keys {
		if _, exists := appCfg.Targets[key]; !exists {
			return fmt.Errorf("target '%s' not found. Available targets: %v", key, GetAllTargetKeys(appCfg))
		}
	}
	return nil
}

// GetAllTargetKeys returns all target keys from the config, sorted
func GetAllTargetKeys(appCfg *config.AppConfig) []string {
	keys := make([]string, 0, len(appCfg.Targets))
	for k := range appCfg.Targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
