package notify

import (
	"sync"
	"time"

	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

// Status is the outcome of a notification attempt
type Status string

// Notification outcomes
const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusDropped Status = "dropped"
)

// Record describes one notification attempt
type Record struct {
	LeakID   uint64         `json:"leakId"`
	Location geometry.Point `json:"location"`
	Status   Status         `json:"status"`
	Code     int            `json:"code,omitempty"`
	Err      string         `json:"error,omitempty"`
	At       time.Time      `json:"at"`
}

// Journal is an append-only in-memory log of notification attempts
type Journal struct {
	mu      sync.Mutex
	records []Record
}

// NewJournal creates an empty journal
func NewJournal() *Journal {
	return &Journal{}
}

// Append adds a record
func (j *Journal) Append(r Record) {
	j.mu.Lock()
	j.records = append(j.records, r)
	j.mu.Unlock()
}

// Records returns a copy of every record in append order
func (j *Journal) Records() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Record, len(j.records))
	copy(out, j.records)
	return out
}

// Count returns how many records have the given status
func (j *Journal) Count(status Status) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, r := range j.records {
		if r.Status == status {
			n++
		}
	}
	return n
}
