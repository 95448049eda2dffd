package envelope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/constants"
)

func TestBuildInboundRoundTrip(t *testing.T) {
	codec := NewCodec("telegram-1")

	payload, err := codec.BuildInbound("42", "42", "hello <world> & friends")
	require.NoError(t, err)

	event, err := ParseInbound(payload)
	require.NoError(t, err)

	assert.Equal(t, constants.SpecVersion, event.SpecVersion)
	assert.Equal(t, constants.EventTypeInbound, event.Type)
	assert.Equal(t, "urn:connector:telegram-1", event.Source)
	assert.Equal(t, constants.DataContentType, event.DataContentType)
	assert.Equal(t, "telegram-1", event.Data.ConnectorID)
	assert.Equal(t, "42", event.Data.ConversationID)
	assert.Equal(t, "42", event.Data.RoomID)
	assert.Equal(t, "hello <world> & friends", event.Data.Text)

	assert.NotEmpty(t, event.ID)
	_, err = time.Parse(time.RFC3339Nano, event.Time)
	assert.NoError(t, err)
}

func TestBuildInboundAssignsFreshIDs(t *testing.T) {
	codec := NewCodec("telegram-1")

	first, err := codec.BuildInbound("1", "1", "same text")
	require.NoError(t, err)
	second, err := codec.BuildInbound("1", "1", "same text")
	require.NoError(t, err)

	a, err := ParseInbound(first)
	require.NoError(t, err)
	b, err := ParseInbound(second)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantError bool
	}{
		{
			name:      "valid reply frame",
			raw:       `{"type":"assistant.message.outbound","data":{"conversationId":"7","text":"ok"}}`,
			wantError: false,
		},
		{
			name:      "empty object",
			raw:       `{}`,
			wantError: false,
		},
		{
			name:      "not json",
			raw:       `this is not json`,
			wantError: true,
		},
		{
			name:      "truncated frame",
			raw:       `{"type":"assistant.mess`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseInbound([]byte(tt.raw))
			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, event)
			}
		})
	}
}
