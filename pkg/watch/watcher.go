package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-toc/pkg/models"
	"github.com/Sriram-PR/md-toc/pkg/process"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// DefaultDebounce is used when no debounce is configured
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-runs insertion for documents whose content changes on disk.
// Bursts of events on one file are collapsed into a single run after the debounce delay.
type Watcher struct {
	processor *process.FileProcessor
	jobs      map[string]process.Job
	debounce  time.Duration
	log       *logrus.Entry

	// OnResult, when set, is called after every processed change
	OnResult func(models.FileResult)

	mu      sync.Mutex
	pending map[string]*time.Timer
	running map[string]bool // a run of the path is in progress
	rerun   map[string]bool // a change arrived during that run
	status  map[string]FileStatus

	ready chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// FileStatus contains the last outcome for a watched document
type FileStatus struct {
	Path     string
	LastRun  time.Time
	Status   models.FileStatus
	Headings int
	Error    string
	Runs     int
}

// NewWatcher creates a watcher for the given jobs. Jobs are keyed by their cleaned path.
func NewWatcher(ctx context.Context, jobs []process.Job, processor *process.FileProcessor, debounce time.Duration, log *logrus.Entry) *Watcher {
	ctx, cancel := context.WithCancel(ctx)
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	byPath := make(map[string]process.Job, len(jobs))
	for _, job := range jobs {
		abs, err := filepath.Abs(job.Path)
		if err != nil {
			abs = filepath.Clean(job.Path)
		}
		byPath[abs] = job
	}

	return &Watcher{
		processor: processor,
		jobs:      byPath,
		debounce:  debounce,
		log:       log,
		pending:   make(map[string]*time.Timer),
		running:   make(map[string]bool),
		rerun:     make(map[string]bool),
		status:    make(map[string]FileStatus),
		ready:     make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Run processes every document once, then watches for changes until stopped
func (w *Watcher) Run() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: creating file watcher: %w", utils.ErrFilesystem, err)
	}
	defer fsw.Close()

	// Directories are watched rather than files: editors often save by renaming a temp file
	// over the original, which drops a watch on the file itself.
	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("%w: watching '%s': %w", utils.ErrFilesystem, dir, err)
		}
	}

	w.log.Infof("Watching %d files (debounce %v)", len(w.jobs), w.debounce)
	for _, path := range w.paths() {
		w.process(path)
	}
	close(w.ready)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Watcher shutting down...")
			w.shutdown()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				w.shutdown()
				return nil
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.shutdown()
				return nil
			}
			w.log.Warnf("File watcher error: %v", err)
		}
	}
}

// Ready is closed once the initial pass is done and events are being handled
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Stop stops the watcher
func (w *Watcher) Stop() {
	w.cancel()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, ok := w.jobs[path]; !ok {
		return
	}
	w.log.Debugf("Change detected: %s (%s)", path, event.Op)
	w.schedule(path)
}

// schedule (re)starts the debounce timer of a path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		if w.ctx.Err() != nil {
			w.mu.Unlock()
			return
		}
		if w.running[path] {
			w.rerun[path] = true
			w.mu.Unlock()
			return
		}
		w.running[path] = true
		// Registered under the lock so Run's shutdown cannot start waiting first
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.runSerial(path)
	})
}

// runSerial processes path until no change arrived during the last run.
// At most one run per path is in flight.
func (w *Watcher) runSerial(path string) {
	for {
		w.process(path)

		w.mu.Lock()
		if w.rerun[path] && w.ctx.Err() == nil {
			delete(w.rerun, path)
			w.mu.Unlock()
			continue
		}
		delete(w.rerun, path)
		delete(w.running, path)
		w.mu.Unlock()
		return
	}
}

// shutdown cancels the context, drops pending timers and waits for in-flight runs
func (w *Watcher) shutdown() {
	w.cancel()
	w.stopPending()
	w.wg.Wait()
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) process(path string) {
	result := w.processor.Process(w.ctx, w.jobs[path])

	w.mu.Lock()
	st := w.status[path]
	st.Path = path
	st.LastRun = time.Now()
	st.Status = result.Status
	st.Headings = result.Headings
	st.Error = ""
	if result.Err != nil {
		st.Error = result.Err.Error()
	}
	st.Runs++
	w.status[path] = st
	w.mu.Unlock()

	if result.Status == models.FileStatusUpdated {
		w.log.Infof("Updated table of contents: %s", path)
	}
	if w.OnResult != nil {
		w.OnResult(result)
	}
}

// GetStatus returns the last outcome of every watched document
func (w *Watcher) GetStatus() map[string]FileStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]FileStatus, len(w.status))
	for k, v := range w.status {
		out[k] = v
	}
	return out
}

func (w *Watcher) paths() []string {
	paths := make([]string, 0, len(w.jobs))
	for p := range w.jobs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) dirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for p := range w.jobs {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)
	return dirs
}
