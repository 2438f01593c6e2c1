// Package jsonl persists comments as append-only JSON-line logs, one log
// per (apiKey, itemId) scope. Deletion rewrites the affected log without
// the target record; concurrent delete and append resolve last-writer-wins.
package jsonl

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/commentable-dev/commentable/internal/domain"
	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/storage"
)

type Storage struct {
	rootPath string

	// Guards log rewrites against concurrent appends. Appends to
	// different scopes never contend on the filesystem, only here.
	mu sync.Mutex
}

var _ storage.Backend = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	p := filepath.Clean(rootPath)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create comments directory %s: %w", p, err)
	}
	logger.Log.Info("initialized append-log storage", "root", p)
	return &Storage{rootPath: p}, nil
}

// logPath names the scope's log by a hash so arbitrary item ids stay
// filesystem-safe.
func (s *Storage) logPath(apiKey, itemID string) string {
	h := sha1.Sum([]byte(apiKey + "\x00" + itemID))
	return filepath.Join(s.rootPath, hex.EncodeToString(h[:])+".jsonl")
}

// deriveRowID produces a deterministic positive row identifier from the
// record's content. There is no auto-increment in a log file; the creation
// timestamp keeps resubmissions of identical content distinct.
func deriveRowID(apiKey string, c domain.Comment) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d", apiKey, c.ItemID, c.CommentID, c.CreatedAt.UnixNano())
	return int64(h.Sum64() &^ (1 << 63))
}

// Store appends one self-contained record to the scope's log. The file
// handle is acquired and released per call; no ambient write cache.
func (s *Storage) Store(apiKey string, c domain.Comment) (int64, error) {
	record := domain.StoredComment{Comment: c, RowID: deriveRowID(apiKey, c)}
	line, err := json.Marshal(record)
	if err != nil {
		return 0, internal_errors.Storage("could not encode comment")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.logPath(apiKey, c.ItemID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Log.Error("could not open comment log", "item_id", c.ItemID, "error", err)
		return 0, internal_errors.Storage("could not store comment")
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		logger.Log.Error("could not append comment", "item_id", c.ItemID, "error", err)
		return 0, internal_errors.Storage("could not store comment")
	}
	return record.RowID, nil
}

// ReadAll returns the scope's records sorted by creation time. A missing
// log means the scope has no comments yet, not an error.
func (s *Storage) ReadAll(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readLog(s.logPath(apiKey, itemID))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if order == domain.SortDesc {
			i, j = j, i
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteByID rewrites whichever log holds the row id without that record.
// The row id alone identifies the record, so every log is scanned. An
// absent row id is a successful no-op.
func (s *Storage) DeleteByID(rowID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.logFiles()
	if err != nil {
		return err
	}
	for _, path := range paths {
		records, err := readLog(path)
		if err != nil {
			return err
		}
		kept := records[:0]
		for _, r := range records {
			if r.RowID != rowID {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(records) {
			continue
		}
		return rewriteLog(path, kept)
	}
	return nil
}

// CountAll walks every log counting records, for the liveness probe.
func (s *Storage) CountAll() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.logFiles()
	if err != nil {
		return 0, err
	}
	var count int64
	for _, path := range paths {
		records, err := readLog(path)
		if err != nil {
			return 0, err
		}
		count += int64(len(records))
	}
	return count, nil
}

func (s *Storage) logFiles() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.rootPath, "*.jsonl"))
	if err != nil {
		logger.Log.Error("could not list comment logs", "error", err)
		return nil, internal_errors.Storage("could not access comment logs")
	}
	return paths, nil
}

func readLog(path string) ([]domain.StoredComment, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.StoredComment{}, nil
		}
		logger.Log.Error("could not open comment log", "path", path, "error", err)
		return nil, internal_errors.Storage("could not read comments")
	}
	defer f.Close()

	records := []domain.StoredComment{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r domain.StoredComment
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			logger.Log.Error("corrupt record in comment log", "path", path, "error", err)
			return nil, internal_errors.Storage("could not read comments")
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		logger.Log.Error("could not scan comment log", "path", path, "error", err)
		return nil, internal_errors.Storage("could not read comments")
	}
	return records, nil
}

func rewriteLog(path string, records []domain.StoredComment) error {
	if len(records) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Log.Error("could not remove empty comment log", "path", path, "error", err)
			return internal_errors.Storage("could not delete comment")
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".rewrite-*")
	if err != nil {
		logger.Log.Error("could not create rewrite file", "path", path, "error", err)
		return internal_errors.Storage("could not delete comment")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			tmp.Close()
			return internal_errors.Storage("could not delete comment")
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return internal_errors.Storage("could not delete comment")
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return internal_errors.Storage("could not delete comment")
	}
	if err := tmp.Close(); err != nil {
		return internal_errors.Storage("could not delete comment")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		logger.Log.Error("could not replace comment log", "path", path, "error", err)
		return internal_errors.Storage("could not delete comment")
	}
	return nil
}
