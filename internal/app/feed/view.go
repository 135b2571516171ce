package feed

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// Entry is the latest known state of one record.
type Entry struct {
	Key     string          `json:"key"`
	Owner   string          `json:"owner,omitempty"`
	Version int64           `json:"version"`
	Deleted bool            `json:"deleted,omitempty"`
	Record  json.RawMessage `json:"record,omitempty"`
}

// View folds changes into the latest state per record. Delivery may repeat
// or reorder changes, so Apply keeps whichever image carries the highest
// version and ignores the rest. Deletes leave a tombstone so a late update
// cannot resurrect the record.
type View struct {
	mu     sync.RWMutex
	tables map[string]map[string]Entry
}

// NewView creates an empty view.
func NewView() *View {
	return &View{tables: make(map[string]map[string]Entry)}
}

// Apply merges change and reports whether the view moved forward.
func (v *View) Apply(change Change) bool {
	if change.Table == "" || change.Key == "" {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	rows, ok := v.tables[change.Table]
	if !ok {
		rows = make(map[string]Entry)
		v.tables[change.Table] = rows
	}

	current, seen := rows[change.Key]
	if seen && current.Version >= change.Version {
		return false
	}

	entry := Entry{
		Key:     change.Key,
		Owner:   change.Owner,
		Version: change.Version,
	}
	if change.Event == websocket.EventDelete {
		entry.Deleted = true
	} else {
		entry.Record = change.Record
	}
	rows[change.Key] = entry
	return true
}

// Get returns the live entry for key.
func (v *View) Get(table, key string) (Entry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.tables[table][key]
	if !ok || e.Deleted {
		return Entry{}, false
	}
	return e, true
}

// Snapshot lists live entries of table ordered by key. A non-empty owner
// restricts the result to that owner's records.
func (v *View) Snapshot(table, owner string) []Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Entry, 0, len(v.tables[table]))
	for _, e := range v.tables[table] {
		if e.Deleted || (owner != "" && e.Owner != owner) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Listen subscribes the view to every change broadcast by hub until ctx is
// cancelled.
func Listen(ctx context.Context, hub *websocket.Hub, view *View, buffer int, logger zerolog.Logger) {
	if buffer <= 0 {
		buffer = 256
	}
	messages := make(chan *websocket.Message, buffer)
	hub.AddMessageListener(messages)
	defer hub.RemoveMessageListener(messages)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-messages:
			if msg == nil {
				continue
			}
			if view.Apply(*msg) {
				logger.Debug().
					Str("table", msg.Table).
					Str("key", msg.Key).
					Int64("version", msg.Version).
					Msg("Feed view updated")
			}
		}
	}
}
