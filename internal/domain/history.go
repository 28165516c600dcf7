package domain

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// HistoryItem is one entry of the append-only insights log.
type HistoryItem struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Content  string   `json:"content"`
	Analysis Analysis `json:"analysis"`
	Mode     FlowMode `json:"mode"`
}

// SortHistory orders items newest-first by descending lexical id.
func SortHistory(items []HistoryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ID > items[j].ID
	})
}

// HistoryIDs issues time-derived history ids. Ids are fixed-width
// millisecond timestamps so lexical order matches creation order, and a
// clock that stalls or steps back never produces a smaller id.
type HistoryIDs struct {
	mu   sync.Mutex
	last int64
}

// Next returns the id for an item created at now.
func (g *HistoryIDs) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return fmt.Sprintf("%013d", ms)
}
