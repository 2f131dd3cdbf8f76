package amqp

import (
	"encoding/json"
	"time"

	"worklens/internal/core"
)

// InvalidationMessage tells other processes which rule axes to drop from
// their caches. An empty axis list means drop everything.
type InvalidationMessage struct {
	Axes      []core.RuleAxis `json:"axes"`
	Origin    string          `json:"origin"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewInvalidationMessage(origin string, axes []core.RuleAxis) *InvalidationMessage {
	return &InvalidationMessage{
		Axes:      axes,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

func (m *InvalidationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InvalidationMessageFromJSON(data []byte) (*InvalidationMessage, error) {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
