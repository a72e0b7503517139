package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Storage persists audit entries in append order.
type Storage interface {
	// Append persists one entry. Entries arrive with their chain hashes
	// already computed.
	Append(ctx context.Context, e *Entry) error

	// Replay streams every stored entry in append order. Iteration stops
	// at the first callback error.
	Replay(ctx context.Context, fn func(e *Entry) error) error

	// Close releases backend resources.
	Close() error
}

// Writer is the single logical audit writer for a process. It owns the
// chain head and serializes appends; all enforcement decisions flow
// through one Writer instance.
type Writer struct {
	storage Storage
	logger  *slog.Logger

	mu       sync.Mutex
	prevHash string
	count    int
	closed   bool
}

// NewWriter opens a writer over existing storage. The chain head is
// recovered by replaying the stored entries, so appends continue an
// existing chain rather than starting a new one.
func NewWriter(storage Storage) (*Writer, error) {
	w := &Writer{
		storage: storage,
		logger:  slog.Default().With("component", "audit.writer"),
	}

	err := storage.Replay(context.Background(), func(e *Entry) error {
		w.prevHash = e.EntryHash
		w.count++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recover audit chain head: %w", err)
	}

	if w.count > 0 {
		w.logger.Info("Audit chain resumed", "entries", w.count)
	}
	return w, nil
}

// Append computes the entry's chain hashes and persists it. The entry is
// mutated in place: PrevHash and EntryHash are set before storage sees it.
func (w *Writer) Append(ctx context.Context, e *Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	e.PrevHash = w.prevHash
	hash, err := ComputeHash(w.prevHash, e)
	if err != nil {
		return err
	}
	e.EntryHash = hash

	if err := w.storage.Append(ctx, e); err != nil {
		return err
	}

	w.prevHash = hash
	w.count++

	w.logger.Debug("audit entry appended",
		"session_id", e.SessionID,
		"action", e.Action,
		"score", e.Scores.Final,
		"attempt", e.Attempt,
	)
	return nil
}

// Len returns the number of entries written through or recovered by this
// writer.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the writer and its storage. Appends after Close fail with
// ErrWriterClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.storage.Close()
}

// VerifyChain replays the stored chain and recomputes every hash. It
// returns the number of verified entries, or a ChainError at the first
// entry whose recomputed hash or previous-hash link does not match.
func VerifyChain(ctx context.Context, storage Storage) (int, error) {
	prev := ""
	index := 0

	err := storage.Replay(ctx, func(e *Entry) error {
		if e.PrevHash != prev {
			return &ChainError{Index: index, Reason: fmt.Sprintf("prev_hash %q does not match chain head %q", e.PrevHash, prev)}
		}
		computed, err := ComputeHash(prev, e)
		if err != nil {
			return &ChainError{Index: index, Reason: err.Error()}
		}
		if computed != e.EntryHash {
			return &ChainError{Index: index, Reason: fmt.Sprintf("entry_hash %q does not match recomputed %q", e.EntryHash, computed)}
		}
		prev = e.EntryHash
		index++
		return nil
	})
	if err != nil {
		return index, err
	}
	return index, nil
}
