package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-toc/pkg/log"
	"github.com/Sriram-PR/md-toc/pkg/models"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

const (
	fileKeyPrefix = "file:"        // Prefix for document path keys in DB
	stateDBDir    = "toc_state_db" // Subdirectory name within stateDir for Badger DB files
)

var errStoreClosed = errors.New("state DB not initialized")

// BadgerStore implements the StateStore interface using BadgerDB
type BadgerStore struct {
	db       *badger.DB
	log      *logrus.Entry
	ctx      context.Context // Parent context
	keyCount atomic.Int64    // Cached key count for O(1) GetFileCount
}

// NewBadgerStore opens (or creates) the state database for one target.
// With reset set, any existing state for the target is removed first.
func NewBadgerStore(ctx context.Context, stateDir, target string, reset bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log: logger,
		ctx: ctx,
	}

	dbPath := filepath.Join(stateDir, utils.SanitizeName(target)+"_"+stateDBDir)

	if reset {
		logger.Warnf("Reset requested. REMOVING existing state directory: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			logger.Errorf("Failed to remove existing state directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Opening TOC state database at: %s", dbPath)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create state directory %s: %w", utils.ErrFilesystem, dbPath, err)
	}

	badgerLogger := log.NewBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest state per document matters

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database at %s: %w", utils.ErrDatabase, dbPath, err)
	}

	if !reset {
		count, err := store.countKeys()
		if err != nil {
			logger.Warnf("Failed to count existing keys: %v", err)
		} else {
			store.keyCount.Store(int64(count))
			logger.Debugf("Loaded existing key count: %d", count)
		}
	}

	return store, nil
}

// countKeys performs a one-time scan of the document keys (used only during initialization).
func (s *BadgerStore) countKeys() (int, error) {
	count := 0
	prefix := []byte(fileKeyPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Workers touch distinct keys, so conflicts are rare and resolve on the next attempt.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

func fileKey(path string) []byte {
	return []byte(fileKeyPrefix + filepath.ToSlash(filepath.Clean(path)))
}

// CheckFileStatus implements the FileStore interface
func (s *BadgerStore) CheckFileStatus(path string) (models.FileStatus, *models.FileDBEntry, error) {
	if s.db == nil {
		return models.FileStatusDBError, nil, errStoreClosed
	}
	status := models.FileStatusNotFound
	var entry *models.FileDBEntry
	key := fileKey(path)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting file key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		return item.Value(func(val []byte) error {
			var decoded models.FileDBEntry
			if errJson := json.Unmarshal(val, &decoded); errJson != nil {
				s.log.Warnf("Failed to unmarshal FileDBEntry for key '%s': %v. Treating as 'not_found'.", string(key), errJson)
				return nil
			}
			entry = &decoded
			status = decoded.Status
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckFileStatus for key '%s': %v", string(key), errView)
		return models.FileStatusDBError, nil, errView
	}
	return status, entry, nil
}

// UpdateFileStatus implements the FileStore interface
func (s *BadgerStore) UpdateFileStatus(path string, entry *models.FileDBEntry) error {
	if s.db == nil {
		return errStoreClosed
	}
	key := fileKey(path)

	entryBytes, errJson := json.Marshal(entry)
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal FileDBEntry for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	isNew := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		isNew = false
		_, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			isNew = true
		}
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdateFileStatus: %v", err)
		return fmt.Errorf("%w: failed setting file status for key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if isNew {
		s.keyCount.Add(1)
	}

	s.log.Debugf("Updated file status for key '%s' to '%s'", string(key), entry.Status)
	return nil
}

// GetFileContentHash implements the FileStore interface.
// Only successful runs carry a usable hash.
func (s *BadgerStore) GetFileContentHash(path string) (string, bool, error) {
	status, entry, err := s.CheckFileStatus(path)
	if err != nil {
		return "", false, err
	}
	if status.IsSuccess() && entry != nil && entry.ContentHash != "" {
		return entry.ContentHash, true, nil
	}
	return "", false, nil
}

// DeleteFile implements the FileStore interface
func (s *BadgerStore) DeleteFile(path string) error {
	if s.db == nil {
		return errStoreClosed
	}
	key := fileKey(path)

	existed := false
	err := s.dbUpdate(func(txn *badger.Txn) error {
		existed = false
		_, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("%w: failed deleting file key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	if existed {
		s.keyCount.Add(-1)
	}
	return nil
}

// GetFileCount implements the StoreAdmin interface
func (s *BadgerStore) GetFileCount() (int, error) {
	return int(s.keyCount.Load()), nil
}

// RunGC runs BadgerDB's garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debug("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Debug("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			var err error
			for {
				// Rewrite while at least half of a value log file is reclaimable
				if err = s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}

			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Debug("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Debugf("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// ListFailed implements the StoreAdmin interface
func (s *BadgerStore) ListFailed(ctx context.Context) ([]string, int, error) {
	if s.db == nil {
		return nil, 0, errStoreClosed
	}
	var paths []string
	scanErrors := 0
	prefix := []byte(fileKeyPrefix)

	scanErr := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			path := string(item.KeyCopy(nil)[len(prefix):])

			errValue := item.Value(func(val []byte) error {
				var entry models.FileDBEntry
				if errJson := json.Unmarshal(val, &entry); errJson != nil {
					s.log.Errorf("Failed scan: cannot unmarshal FileDBEntry for '%s': %v. Skipping.", path, errJson)
					scanErrors++
					return nil
				}
				if entry.Status == models.FileStatusFailure {
					paths = append(paths, filepath.FromSlash(path))
				}
				return nil
			})
			if errValue != nil {
				s.log.Errorf("Failed scan: error getting value for '%s': %v", path, errValue)
				scanErrors++
			}
		}
		return nil
	})

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) && !errors.Is(scanErr, context.DeadlineExceeded) {
		scanErr = fmt.Errorf("%w: scanning failed files: %w", utils.ErrDatabase, scanErr)
	}
	s.log.Debugf("Failed scan complete: %d paths, %d errors", len(paths), scanErrors)
	return paths, scanErrors, scanErr
}

// WriteStateLog implements the StoreAdmin interface
func (s *BadgerStore) WriteStateLog(filePath string) error {
	if s.db == nil {
		return errStoreClosed
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("%w: create state log '%s': %w", utils.ErrFilesystem, filePath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	var writeErr error
	written := 0
	prefix := []byte(fileKeyPrefix)

	iterErr := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-s.ctx.Done():
				return s.ctx.Err()
			default:
			}

			item := it.Item()
			key := item.KeyCopy(nil)
			status := models.FileStatusUnset
			_ = item.Value(func(val []byte) error {
				var entry models.FileDBEntry
				if json.Unmarshal(val, &entry) == nil {
					status = entry.Status
				}
				return nil
			})

			line := string(bytes.TrimPrefix(key, prefix)) + "\t" + status.String() + "\n"
			if _, err := writer.WriteString(line); err != nil && writeErr == nil {
				writeErr = err
			}
			written++
		}
		return nil
	})

	if flushErr := writer.Flush(); flushErr != nil && writeErr == nil {
		writeErr = flushErr
	}
	if syncErr := file.Sync(); syncErr != nil && writeErr == nil {
		writeErr = syncErr
	}

	if iterErr != nil {
		if errors.Is(iterErr, context.Canceled) || errors.Is(iterErr, context.DeadlineExceeded) {
			return iterErr
		}
		return fmt.Errorf("%w: iterating state DB: %w", utils.ErrDatabase, iterErr)
	}
	if writeErr != nil {
		return fmt.Errorf("%w: write state log '%s': %w", utils.ErrFilesystem, filePath, writeErr)
	}
	s.log.Infof("Wrote %d entries to state log: %s", written, filePath)
	return nil
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing state DB: %v", err)
			return err
		}
		s.log.Debug("State DB closed.")
		return nil
	}
	return nil
}

var _ StateStore = (*BadgerStore)(nil)
