package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestJSONLStorage tests the append/replay round trip.
func TestJSONLStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.jsonl")
	s, err := NewJSONLStorage(path)
	if err != nil {
		t.Fatalf("NewJSONLStorage() error = %v", err)
	}
	defer s.Close()

	w, err := NewWriter(s)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := w.Append(context.Background(), testEntry("s-1", i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	var replayed []*Entry
	err = s.Replay(context.Background(), func(e *Entry) error {
		replayed = append(replayed, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if len(replayed) != 3 {
		t.Fatalf("replayed %d entries, want 3", len(replayed))
	}
	for i, e := range replayed {
		if e.Attempt != i || e.SessionID != "s-1" {
			t.Errorf("entry %d = session %s attempt %d", i, e.SessionID, e.Attempt)
		}
	}

	if n, err := VerifyChain(context.Background(), s); err != nil || n != 3 {
		t.Errorf("VerifyChain() = %d, %v; want 3, nil", n, err)
	}
}

// TestJSONLStorage_ResumeAcrossReopen tests chain continuity across
// process restarts.
func TestJSONLStorage_ResumeAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	s1, err := NewJSONLStorage(path)
	if err != nil {
		t.Fatalf("NewJSONLStorage() error = %v", err)
	}
	w1, err := NewWriter(s1)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w1.Append(context.Background(), testEntry("s-1", 0)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewJSONLStorage(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()
	w2, err := NewWriter(s2)
	if err != nil {
		t.Fatalf("NewWriter() resume error = %v", err)
	}
	if w2.Len() != 1 {
		t.Errorf("resumed Len() = %d, want 1", w2.Len())
	}
	if err := w2.Append(context.Background(), testEntry("s-2", 0)); err != nil {
		t.Fatalf("Append() after reopen error = %v", err)
	}

	if n, err := VerifyChain(context.Background(), s2); err != nil || n != 2 {
		t.Errorf("VerifyChain() = %d, %v; want 2, nil", n, err)
	}
}

// TestJSONLStorage_MalformedRecord tests replay failure on a corrupted
// line.
func TestJSONLStorage_MalformedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewJSONLStorage(path)
	if err != nil {
		t.Fatalf("NewJSONLStorage() error = %v", err)
	}
	defer s.Close()

	err = s.Replay(context.Background(), func(e *Entry) error { return nil })
	var se *StorageError
	if !errors.As(err, &se) {
		t.Errorf("Replay() error = %v, want *StorageError", err)
	}
}

// TestJSONLStorage_MissingFileReplaysEmpty tests that a fresh path
// replays zero entries rather than erroring.
func TestJSONLStorage_MissingFileReplaysEmpty(t *testing.T) {
	s := &JSONLStorage{path: filepath.Join(t.TempDir(), "absent.jsonl")}
	count := 0
	if err := s.Replay(context.Background(), func(e *Entry) error { count++; return nil }); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if count != 0 {
		t.Errorf("replayed %d entries, want 0", count)
	}
}
