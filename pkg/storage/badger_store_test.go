package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/md-toc/pkg/models"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(context.Background(), t.TempDir(), "docs", true, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func successEntry(hash string) *models.FileDBEntry {
	now := time.Now()
	return &models.FileDBEntry{
		Status:      models.FileStatusUpdated,
		ContentHash: hash,
		Headings:    3,
		ProcessedAt: now,
		LastAttempt: now,
	}
}

func TestNewBadgerStore(t *testing.T) {
	t.Run("fresh store has zero count", func(t *testing.T) {
		store := newTestStore(t)
		count, err := store.GetFileCount()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("reopen preserves data", func(t *testing.T) {
		dir := t.TempDir()
		ctx := context.Background()

		store1, err := NewBadgerStore(ctx, dir, "docs", false, testLogger())
		require.NoError(t, err)
		require.NoError(t, store1.UpdateFileStatus("README.md", successEntry("abc")))
		require.NoError(t, store1.Close())

		store2, err := NewBadgerStore(ctx, dir, "docs", false, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store2.Close() })

		count, err := store2.GetFileCount()
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		hash, ok, err := store2.GetFileContentHash("README.md")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc", hash)
	})

	t.Run("reset wipes data", func(t *testing.T) {
		dir := t.TempDir()
		ctx := context.Background()

		store1, err := NewBadgerStore(ctx, dir, "docs", false, testLogger())
		require.NoError(t, err)
		require.NoError(t, store1.UpdateFileStatus("README.md", successEntry("abc")))
		require.NoError(t, store1.Close())

		store2, err := NewBadgerStore(ctx, dir, "docs", true, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store2.Close() })

		status, _, err := store2.CheckFileStatus("README.md")
		require.NoError(t, err)
		assert.Equal(t, models.FileStatusNotFound, status)
	})

	t.Run("targets get separate directories", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewBadgerStore(context.Background(), dir, "api/docs", false, testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })

		_, err = os.Stat(filepath.Join(dir, "api_docs_toc_state_db"))
		assert.NoError(t, err)
	})
}

func TestFileStatusRoundTrip(t *testing.T) {
	store := newTestStore(t)

	status, entry, err := store.CheckFileStatus("docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, models.FileStatusNotFound, status)
	assert.Nil(t, entry)

	require.NoError(t, store.UpdateFileStatus("docs/guide.md", successEntry("h1")))

	status, entry, err = store.CheckFileStatus("docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, models.FileStatusUpdated, status)
	require.NotNil(t, entry)
	assert.Equal(t, "h1", entry.ContentHash)
	assert.Equal(t, 3, entry.Headings)

	// Overwrites do not grow the count; equivalent paths share a key
	require.NoError(t, store.UpdateFileStatus("docs/./guide.md", successEntry("h2")))
	count, _ := store.GetFileCount()
	assert.Equal(t, 1, count)

	hash, ok, err := store.GetFileContentHash("docs/guide.md")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h2", hash)
}

func TestGetFileContentHash(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		entry  *models.FileDBEntry
		wantOK bool
	}{
		{"updated", &models.FileDBEntry{Status: models.FileStatusUpdated, ContentHash: "x"}, true},
		{"unchanged", &models.FileDBEntry{Status: models.FileStatusUnchanged, ContentHash: "x"}, true},
		{"failure", &models.FileDBEntry{Status: models.FileStatusFailure, ContentHash: "x"}, false},
		{"stale", &models.FileDBEntry{Status: models.FileStatusStale, ContentHash: "x"}, false},
		{"no hash", &models.FileDBEntry{Status: models.FileStatusUpdated}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.name + ".md"
			require.NoError(t, store.UpdateFileStatus(path, tt.entry))
			hash, ok, err := store.GetFileContentHash(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "x", hash)
			} else {
				assert.Empty(t, hash)
			}
		})
	}

	_, ok, err := store.GetFileContentHash("missing.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateFileStatus("a.md", successEntry("a")))
	require.NoError(t, store.UpdateFileStatus("b.md", successEntry("b")))

	require.NoError(t, store.DeleteFile("a.md"))
	require.NoError(t, store.DeleteFile("never-stored.md"))

	count, _ := store.GetFileCount()
	assert.Equal(t, 1, count)

	status, _, err := store.CheckFileStatus("a.md")
	require.NoError(t, err)
	assert.Equal(t, models.FileStatusNotFound, status)
}

func TestListFailed(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateFileStatus("ok.md", successEntry("a")))
	require.NoError(t, store.UpdateFileStatus("bad.md", &models.FileDBEntry{Status: models.FileStatusFailure, ErrorType: "Toc_MultipleMarkers"}))
	require.NoError(t, store.UpdateFileStatus("sub/worse.md", &models.FileDBEntry{Status: models.FileStatusFailure}))

	paths, scanErrors, err := store.ListFailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, scanErrors)
	assert.ElementsMatch(t, []string{"bad.md", filepath.FromSlash("sub/worse.md")}, paths)

	t.Run("cancelled context stops the scan", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := store.ListFailed(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteStateLog(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpdateFileStatus("a.md", successEntry("a")))
	require.NoError(t, store.UpdateFileStatus("b.md", &models.FileDBEntry{Status: models.FileStatusFailure}))

	out := filepath.Join(t.TempDir(), "state.log")
	require.NoError(t, store.WriteStateLog(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"a.md\tupdated", "b.md\tfailure"}, lines)
}

func TestRunGC_StopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.RunGC(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunGC did not stop after cancellation")
	}
}

func TestClose_Idempotent(t *testing.T) {
	store, err := NewBadgerStore(context.Background(), t.TempDir(), "docs", false, testLogger())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
