package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxLineBytes bounds a single JSONL record during replay.
const maxLineBytes = 4 << 20

// JSONLStorage appends entries to a newline-delimited JSON file. It is
// the default backend: human-inspectable and trivially shippable.
type JSONLStorage struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewJSONLStorage opens (creating if needed) a JSONL audit file.
func NewJSONLStorage(path string) (*JSONLStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("jsonl", "mkdir", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, NewStorageError("jsonl", "open", err)
	}
	return &JSONLStorage{path: path, file: f}, nil
}

// Append writes one entry as a single JSON line.
func (s *JSONLStorage) Append(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return NewStorageError("jsonl", "append", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return NewStorageError("jsonl", "encode", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return NewStorageError("jsonl", "append", ErrWriterClosed)
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return NewStorageError("jsonl", "append", err)
	}
	return nil
}

// Replay streams the stored entries in file order. Replay opens its own
// read handle, so it is safe alongside a live appender.
func (s *JSONLStorage) Replay(ctx context.Context, fn func(e *Entry) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewStorageError("jsonl", "replay", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return NewStorageError("jsonl", "replay", err)
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return NewStorageError("jsonl", "replay", fmt.Errorf("malformed record at line %d: %w", line+1, err))
		}
		if err := fn(&e); err != nil {
			return err
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return NewStorageError("jsonl", "replay", err)
	}
	return nil
}

// Close syncs and closes the file.
func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Sync()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	if err != nil {
		return NewStorageError("jsonl", "close", err)
	}
	return nil
}
