package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"farmdash/internal/records"
)

// Action names what happened to a record.
type Action string

const (
	ActionCreated      Action = "created"
	ActionUpdated      Action = "updated"
	ActionDeleted      Action = "deleted"
	ActionStageChanged Action = "stage_changed"
)

// RecordEvent announces a committed write. Record is the state after the
// write and is empty for deletions.
type RecordEvent struct {
	Table     string         `json:"table"`
	ID        int64          `json:"id"`
	Action    Action         `json:"action"`
	Record    records.Record `json:"record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewRecordEvent(table string, id int64, action Action, rec records.Record) *RecordEvent {
	return &RecordEvent{
		Table:     table,
		ID:        id,
		Action:    action,
		Record:    rec,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON decodes and sanity-checks a message body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := records.CheckTable(msg.Table); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionStageChanged:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
