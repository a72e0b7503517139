package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// Scores records the four verification sub-scores and the weighted total.
type Scores struct {
	Formal   float64 `json:"formal"`
	Semantic float64 `json:"semantic"`
	Pattern  float64 `json:"pattern"`
	Coverage float64 `json:"coverage"`
	Final    float64 `json:"final"`
}

// Entry is one audit record. Entries are append-only: no entry is ever
// edited or removed once written.
type Entry struct {
	// EntryHash and PrevHash form the tamper-evidence chain. Both are
	// excluded from the hashed payload; PrevHash is bound into the hash
	// input directly.
	EntryHash string `json:"entry_hash,omitempty"`
	PrevHash  string `json:"prev_hash,omitempty"`

	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	Query  string `json:"query"`
	Domain string `json:"domain"`
	Intent string `json:"intent,omitempty"`

	RetrievedRuleIDs []string `json:"retrieved_rule_ids,omitempty"`
	ScaffoldHash     string   `json:"scaffold_hash,omitempty"`
	ResponseHash     string   `json:"response_hash,omitempty"`

	Scores Scores `json:"scores"`
	Action string `json:"action"`

	// Attempt is the zero-based attempt number this entry records;
	// Retries is the total retries consumed when the entry was written.
	Attempt int `json:"attempt"`
	Retries int `json:"retries"`

	OwnersNotified []string `json:"owners_notified,omitempty"`
	Caveats        []string `json:"caveats,omitempty"`

	DurationMS int64 `json:"duration_ms"`
}

// canonicalPayload returns the RFC 8785 canonical JSON of the entry with
// the hash fields cleared. Two byte-different encodings of the same entry
// canonicalize identically, so verification is independent of the storage
// backend's serialization.
func canonicalPayload(e *Entry) ([]byte, error) {
	clone := *e
	clone.EntryHash = ""
	clone.PrevHash = ""

	data, err := json.Marshal(&clone)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit entry: %w", err)
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize audit entry: %w", err)
	}
	return canonical, nil
}

// ComputeHash returns the chain hash for an entry given the previous
// entry's hash: SHA-256(prevHash ‖ canonical payload).
func ComputeHash(prevHash string, e *Entry) (string, error) {
	payload, err := canonicalPayload(e)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashText returns the hex SHA-256 of a text artifact (scaffold, response).
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
