// Package envelope builds and parses the CloudEvents frames exchanged with
// the assistant backend over the connector stream.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"courier/internal/constants"
	"courier/pkg/models"
)

// Codec serializes outbound events for one connector identity.
type Codec struct {
	connectorID string
	source      string
}

func NewCodec(connectorID string) *Codec {
	return &Codec{
		connectorID: connectorID,
		source:      fmt.Sprintf("urn:connector:%s", connectorID),
	}
}

// BuildInbound serializes an inbound chat message as an
// assistant.message.inbound event. The event id and timestamp are assigned
// here, exactly once; callers must keep the returned bytes verbatim for any
// redelivery so duplicates stay byte-identical.
func (c *Codec) BuildInbound(conversationID, roomID, text string) ([]byte, error) {
	event := models.EventEnvelope{
		SpecVersion:     constants.SpecVersion,
		Type:            constants.EventTypeInbound,
		Source:          c.source,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC().Format(time.RFC3339Nano),
		DataContentType: constants.DataContentType,
		Data: models.EventData{
			ConnectorID:    c.connectorID,
			ConversationID: conversationID,
			RoomID:         roomID,
			Text:           text,
		},
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inbound event: %w", err)
	}
	return payload, nil
}

// ParseInbound decodes a raw frame received from the backend. A frame that
// is not well-formed JSON yields an error; callers drop such frames.
func ParseInbound(raw []byte) (*models.EventEnvelope, error) {
	var event models.EventEnvelope
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event frame: %w", err)
	}
	return &event, nil
}
