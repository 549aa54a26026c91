package amqp

import (
	"encoding/json"
	"time"
)

// InstanceSyncMessage is a lightweight notification that a generated
// instance needs to be exported. It carries only identifiers; the worker
// fetches the full instance from the database.
type InstanceSyncMessage struct {
	InstanceID string    `json:"instance_id"`
	OriginID   string    `json:"origin_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewInstanceSyncMessage(instanceID, originID string) *InstanceSyncMessage {
	return &InstanceSyncMessage{
		InstanceID: instanceID,
		OriginID:   originID,
		Timestamp:  time.Now(),
	}
}

func (m *InstanceSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InstanceSyncMessageFromJSON(data []byte) (*InstanceSyncMessage, error) {
	var msg InstanceSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
