package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-toc/pkg/models"
	"github.com/Sriram-PR/md-toc/pkg/process"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type collector struct {
	mu      sync.Mutex
	results []models.FileResult
}

func (c *collector) add(r models.FileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func startWatcher(t *testing.T, paths []string, debounce time.Duration) (*Watcher, *collector) {
	t.Helper()
	var jobs []process.Job
	for _, p := range paths {
		jobs = append(jobs, process.Job{Path: p, Mode: process.ModeInsert, Write: true})
	}
	w := NewWatcher(context.Background(), jobs, process.NewFileProcessor(nil, testLogger()), debounce, testLogger())
	c := &collector{}
	w.OnResult = c.add

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	t.Cleanup(func() {
		w.Stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not become ready")
	}
	return w, c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_InitialPassAndChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("<!-- toc -->\n\n# AAA\n"), 0644))

	w, c := startWatcher(t, []string{path}, 20*time.Millisecond)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [AAA](#aaa)")
	assert.GreaterOrEqual(t, c.count(), 1)

	require.NoError(t, os.WriteFile(path, []byte(string(data)+"\n# BBB\n"), 0644))
	waitFor(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "- [BBB](#bbb)")
	})

	abs, _ := filepath.Abs(path)
	status := w.GetStatus()[abs]
	assert.GreaterOrEqual(t, status.Runs, 2)
	assert.Empty(t, status.Error)
}

func TestWatcher_IgnoresUnwatchedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	other := filepath.Join(dir, "OTHER.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("<!-- toc -->\n\n# B\n"), 0644))

	_, c := startWatcher(t, []string{path}, 10*time.Millisecond)
	initial := c.count()

	require.NoError(t, os.WriteFile(other, []byte("<!-- toc -->\n\n# C\n"), 0644))
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, initial, c.count())
	data, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "<!-- toc -->\n\n# C\n", string(data))
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n"), 0644))

	_, c := startWatcher(t, []string{path}, 200*time.Millisecond)
	initial := c.count()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("# A\n\ntext\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, func() bool { return c.count() > initial })
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, initial+1, c.count())
}

func TestWatcher_OneRunPerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("<!-- toc -->\n\n# AAA\n"), 0644))

	jobs := []process.Job{{Path: path, Mode: process.ModeInsert, Write: true}}
	w := NewWatcher(context.Background(), jobs, process.NewFileProcessor(nil, testLogger()), 10*time.Millisecond, testLogger())

	var gated atomic.Bool
	var active, maxActive, runs atomic.Int32
	release := make(chan struct{})
	w.OnResult = func(models.FileResult) {
		if !gated.Load() {
			return
		}
		n := active.Add(1)
		defer active.Add(-1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		if runs.Add(1) == 1 {
			<-release
		}
	}

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	t.Cleanup(func() {
		w.Stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not become ready")
	}
	gated.Store(true)

	require.NoError(t, os.WriteFile(path, []byte("<!-- toc -->\n\n# AAA\n\n# BBB\n"), 0644))
	waitFor(t, func() bool { return runs.Load() == 1 })

	// Changes while the first run is blocked are queued, not run alongside it
	require.NoError(t, os.WriteFile(path, []byte("<!-- toc -->\n\n# AAA\n\n# BBB\n\n# CCC\n"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	waitFor(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "- [CCC](#ccc)")
	})
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestWatcher_ShutdownCancelsContext(t *testing.T) {
	w := NewWatcher(context.Background(), nil, process.NewFileProcessor(nil, testLogger()), 0, testLogger())
	w.shutdown()
	assert.Error(t, w.ctx.Err())

	// A timer firing after shutdown must not start a run
	w.schedule("late.md")
	time.Sleep(2 * DefaultDebounce)
	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.running)
	assert.Empty(t, w.status)
}

func TestNewWatcher_DefaultDebounce(t *testing.T) {
	w := NewWatcher(context.Background(), nil, process.NewFileProcessor(nil, testLogger()), 0, testLogger())
	assert.Equal(t, DefaultDebounce, w.debounce)
}
