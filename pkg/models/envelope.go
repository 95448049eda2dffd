package models

// EventEnvelope is the CloudEvents-style record exchanged with the backend
// over the connector stream. Outbound (chat → backend) envelopes carry type
// "assistant.message.inbound"; backend replies carry
// "assistant.message.outbound".
type EventEnvelope struct {
	SpecVersion     string    `json:"specversion"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	ID              string    `json:"id"`
	Time            string    `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            EventData `json:"data"`
}

type EventData struct {
	ConnectorID    string `json:"connectorId"`
	ConversationID string `json:"conversationId"`
	RoomID         string `json:"roomId"`
	Text           string `json:"text"`
}
