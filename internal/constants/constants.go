package constants

import "time"

const (
	SpecVersion     = "1.0"
	DataContentType = "application/json"

	EventTypeInbound  = "assistant.message.inbound"
	EventTypeOutbound = "assistant.message.outbound"

	// BroadcastConversationID is the sentinel conversation id used by the
	// backend to address every known chat at once.
	BroadcastConversationID = "broadcast"
)

const (
	SessionPath        = "/connector"
	SessionHTTPTimeout = 10 * time.Second
)

const (
	BackoffFloor = 2 * time.Second
	BackoffCap   = 60 * time.Second
)

const (
	DefaultConnectorID  = "telegram-1"
	DefaultReplyTimeout = 180 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	TimeoutNotice = "⏳ The assistant did not respond in time. Please try again."
)
