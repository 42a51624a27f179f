// Package events fans service events out to websocket subscribers, either
// in-process or across processes through Redis.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// TypeDatasetImported is published after a dataset import commits
	TypeDatasetImported = "dataset.imported"
	// TypeImportFailed is published when a scheduled import fails
	TypeImportFailed = "dataset.import_failed"
)

// Event is a service notification delivered to websocket clients
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an event with a JSON encoded payload
func NewEvent(eventType string, payload interface{}) (Event, error) {
	event := Event{Type: eventType, Timestamp: time.Now().UTC()}
	if payload == nil {
		return event, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshaling %s payload: %w", eventType, err)
	}
	event.Payload = data
	return event, nil
}

// DatasetImported is the payload of TypeDatasetImported
type DatasetImported struct {
	Source         string `json:"source"`
	UploadID       int64  `json:"uploadId"`
	GamesInserted  int    `json:"gamesInserted"`
	OddsInserted   int    `json:"oddsInserted"`
	ModelsInserted int    `json:"modelsInserted"`
}

// ImportFailed is the payload of TypeImportFailed
type ImportFailed struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}
