package gen

import (
	"sync"
	"time"

	"mapforge/internal/pixel"
)

// Category classifies what a generation dispatch was for.
type Category string

const (
	CategorySeamlessTile Category = "seamless-tile"
	CategoryObject       Category = "object"
	CategoryBaseTexture  Category = "base-texture"
)

// Record captures one dispatched generation call. Purely informational;
// nothing reads these back into core behavior.
type Record struct {
	Time       time.Time           `json:"time"`
	Category   Category            `json:"category"`
	Prompt     string              `json:"prompt"`
	HasContext bool                `json:"has_context"`
	Stats      *pixel.ExtractStats `json:"stats,omitempty"`
}

// DebugLog is an append-only in-memory record of generation dispatches.
type DebugLog struct {
	mu      sync.Mutex
	records []Record
}

// NewDebugLog returns an empty log.
func NewDebugLog() *DebugLog {
	return &DebugLog{}
}

// Append adds a record, stamping the current time if unset.
func (l *DebugLog) Append(r Record) {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	l.mu.Lock()
	l.records = append(l.records, r)
	l.mu.Unlock()
}

// AttachStats adds extraction statistics to the most recent record.
// Dispatches are recorded before the request runs, so stats arrive
// after the fact and only on success.
func (l *DebugLog) AttachStats(s *pixel.ExtractStats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.records); n > 0 {
		l.records[n-1].Stats = s
	}
}

// Records returns a copy of all records in append order.
func (l *DebugLog) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *DebugLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
