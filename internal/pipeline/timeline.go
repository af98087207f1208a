package pipeline

import (
	"sort"
	"time"

	"github.com/nurpe/dealflow/internal/model"
)

type Order int

const (
	// Descending puts the most recent stage first; internal deal views use it.
	Descending Order = iota
	// Ascending reads oldest to newest; the client portal uses it.
	Ascending
)

func ParseOrder(raw string) Order {
	if raw == "asc" || raw == "ASC" {
		return Ascending
	}
	return Descending
}

type TimelineEntry struct {
	Stage     model.DealStage `json:"stage"`
	EnteredAt time.Time       `json:"entered_at"`
	ExitedAt  *time.Time      `json:"exited_at,omitempty"`
}

// ProjectTimeline returns the history as timeline entries sorted by EnteredAt. Entries entered
// at the same instant are ordered by ExitedAt, with the open entry last. The input slice is not
// modified.
func ProjectTimeline(history []model.DealPipelineHistory, order Order) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(history))
	for _, h := range history {
		entries = append(entries, TimelineEntry{Stage: h.Stage, EnteredAt: h.EnteredAt, ExitedAt: h.ExitedAt})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if order == Ascending {
			return earlier(entries[i], entries[j])
		}
		return earlier(entries[j], entries[i])
	})
	return entries
}

// earlier reports whether a was entered before b.
func earlier(a, b TimelineEntry) bool {
	if !a.EnteredAt.Equal(b.EnteredAt) {
		return a.EnteredAt.Before(b.EnteredAt)
	}
	switch {
	case a.ExitedAt == nil:
		return false
	case b.ExitedAt == nil:
		return true
	default:
		return a.ExitedAt.Before(*b.ExitedAt)
	}
}

// OpenRecords returns the history rows that have not been exited.
func OpenRecords(history []model.DealPipelineHistory) []model.DealPipelineHistory {
	var open []model.DealPipelineHistory
	for _, h := range history {
		if h.Open() {
			open = append(open, h)
		}
	}
	return open
}
