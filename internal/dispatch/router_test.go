package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/correlate"
	"courier/internal/logger"
	"courier/internal/relay"
)

type delivery struct {
	chatID string
	text   string
	html   bool
}

type fakeFrontend struct {
	mu         sync.Mutex
	deliveries []delivery
	failAllFor map[string]bool
	rejectHTML map[string]bool
}

func (f *fakeFrontend) DeliverText(ctx context.Context, chatID, text string, html bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAllFor[chatID] {
		return fmt.Errorf("chat %s unreachable", chatID)
	}
	if html && f.rejectHTML[chatID] {
		return fmt.Errorf("chat %s rejected markup", chatID)
	}
	f.deliveries = append(f.deliveries, delivery{chatID: chatID, text: text, html: html})
	return nil
}

func (f *fakeFrontend) delivered() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]delivery, len(f.deliveries))
	copy(out, f.deliveries)
	return out
}

func newTestRouter(frontend *fakeFrontend) (*Router, *correlate.Table, *relay.ChatRegistry) {
	table := correlate.NewTable()
	registry := relay.NewChatRegistry()
	return NewRouter(table, registry, frontend, logger.NopLogger()), table, registry
}

func replyFrame(conversationID, text string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"assistant.message.outbound","data":{"conversationId":"%s","text":"%s"}}`,
		conversationID, text,
	))
}

func TestRouteResolvesPendingConversation(t *testing.T) {
	frontend := &fakeFrontend{}
	router, table, _ := newTestRouter(frontend)

	pending := table.Register("42", []byte(`envelope`))
	router.Route(context.Background(), replyFrame("42", "ok"))

	assert.Equal(t, 0, table.Len())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := pending.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestRouteIgnoresUnrecognizedType(t *testing.T) {
	frontend := &fakeFrontend{}
	router, table, _ := newTestRouter(frontend)

	table.Register("42", []byte(`envelope`))
	router.Route(context.Background(), []byte(`{"type":"assistant.heartbeat","data":{}}`))

	// The pending entry is untouched.
	assert.Equal(t, 1, table.Len())
	assert.Empty(t, frontend.delivered())
}

func TestRouteDropsMalformedFrame(t *testing.T) {
	frontend := &fakeFrontend{}
	router, table, _ := newTestRouter(frontend)

	router.Route(context.Background(), []byte(`not json at all`))

	assert.Equal(t, 0, table.Len())
	assert.Empty(t, frontend.delivered())
}

func TestRouteDropsUnknownConversation(t *testing.T) {
	frontend := &fakeFrontend{}
	router, _, _ := newTestRouter(frontend)

	router.Route(context.Background(), replyFrame("99", "nobody asked"))

	assert.Empty(t, frontend.delivered())
}

func TestBroadcastFansOutToAllKnownChats(t *testing.T) {
	frontend := &fakeFrontend{}
	router, _, registry := newTestRouter(frontend)

	registry.Add("1")
	registry.Add("2")
	registry.Add("3")

	router.Route(context.Background(), replyFrame("broadcast", "announcement"))

	deliveries := frontend.delivered()
	require.Len(t, deliveries, 3)
	for i, chatID := range []string{"1", "2", "3"} {
		assert.Equal(t, chatID, deliveries[i].chatID)
		assert.Equal(t, "announcement", deliveries[i].text)
		assert.True(t, deliveries[i].html)
	}
}

func TestBroadcastSurvivesFailingRecipient(t *testing.T) {
	frontend := &fakeFrontend{failAllFor: map[string]bool{"2": true}}
	router, _, registry := newTestRouter(frontend)

	registry.Add("1")
	registry.Add("2")
	registry.Add("3")

	router.Route(context.Background(), replyFrame("broadcast", "announcement"))

	deliveries := frontend.delivered()
	require.Len(t, deliveries, 2)
	assert.Equal(t, "1", deliveries[0].chatID)
	assert.Equal(t, "3", deliveries[1].chatID)
}

func TestBroadcastFallsBackToPlainText(t *testing.T) {
	frontend := &fakeFrontend{rejectHTML: map[string]bool{"2": true}}
	router, _, registry := newTestRouter(frontend)

	registry.Add("1")
	registry.Add("2")

	router.Route(context.Background(), replyFrame("broadcast", "announcement"))

	deliveries := frontend.delivered()
	require.Len(t, deliveries, 2)

	assert.True(t, deliveries[0].html)
	assert.Equal(t, "2", deliveries[1].chatID)
	assert.False(t, deliveries[1].html)
	assert.Equal(t, "announcement", deliveries[1].text)
}
