// Package feed carries committed changes from the engine to observers and
// folds received changes into a local view.
package feed

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/pkg/websocket"
)

// Change is one committed write.
type Change = websocket.Message

// NewChange builds a change event. record is marshalled as the post-write
// image and omitted for deletes.
func NewChange(event, table, key, owner string, version int64, record any) Change {
	change := Change{
		Event:     event,
		Table:     table,
		Key:       key,
		Owner:     owner,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
	if record != nil && event != websocket.EventDelete {
		if data, err := json.Marshal(record); err == nil {
			change.Record = data
		}
	}
	return change
}

// HubPublisher broadcasts changes through the websocket hub.
type HubPublisher struct {
	hub    *websocket.Hub
	logger zerolog.Logger
}

// NewHubPublisher creates a new HubPublisher
func NewHubPublisher(hub *websocket.Hub, logger zerolog.Logger) *HubPublisher {
	return &HubPublisher{hub: hub, logger: logger}
}

// Publish hands the change to the hub. Delivery to observers is best-effort.
func (p *HubPublisher) Publish(change Change) {
	c := change
	if !p.hub.Broadcast(&c) {
		p.logger.Warn().
			Str("table", change.Table).
			Str("key", change.Key).
			Msg("Change feed stopped, change not published")
	}
}
