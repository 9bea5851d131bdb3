package catalog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// auditCap bounds the trail to the most recent entries; oldest drop first.
const auditCap = 500

// AuditTrail is the append-only record of inventory mutations, newest
// first. Entries are written only by the ledger and never edited.
type AuditTrail struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// NewAuditTrail builds a trail seeded with previously persisted entries
// (already newest first). Entries beyond the cap are dropped.
func NewAuditTrail(seed []LogEntry) *AuditTrail {
	t := &AuditTrail{}
	if len(seed) > auditCap {
		seed = seed[:auditCap]
	}
	t.entries = append(t.entries, seed...)
	return t
}

// append records one entry at the head of the trail.
func (t *AuditTrail) append(entry LogEntry) LogEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append([]LogEntry{entry}, t.entries...)
	if len(t.entries) > auditCap {
		t.entries = t.entries[:auditCap]
	}
	return entry
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (t *AuditTrail) List(limit int) []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogEntry, n)
	copy(out, t.entries[:n])
	return out
}

// Len reports the number of retained entries.
func (t *AuditTrail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
