// Package dispatch classifies frames received from the backend stream and
// routes them to reply resolution or broadcast fan-out.
package dispatch

import (
	"context"

	"courier/internal/constants"
	"courier/internal/correlate"
	"courier/internal/envelope"
	"courier/internal/logger"
	"courier/internal/relay"
	"courier/internal/render"
	"courier/pkg/logging"
	"courier/pkg/metrics"
)

// Frontend is the chat-delivery surface the router needs from the frontend
// adapter. When html is true the text is pre-rendered Telegram markup.
type Frontend interface {
	DeliverText(ctx context.Context, chatID, text string, html bool) error
}

type Router struct {
	table    *correlate.Table
	registry *relay.ChatRegistry
	frontend Frontend
	logger   logger.Logger
}

func NewRouter(table *correlate.Table, registry *relay.ChatRegistry, frontend Frontend, log logger.Logger) *Router {
	return &Router{
		table:    table,
		registry: registry,
		frontend: frontend,
		logger:   log,
	}
}

// Route handles one raw frame. Malformed frames, unrecognized event types
// and unknown conversation ids are logged and dropped; nothing propagates.
func (r *Router) Route(ctx context.Context, raw []byte) {
	event, err := envelope.ParseInbound(raw)
	if err != nil {
		r.logger.WarnwCtx(ctx, "Received non-JSON frame, ignoring", "error", err)
		return
	}

	if event.Type != constants.EventTypeOutbound {
		r.logger.DebugwCtx(ctx, "Ignoring event type", "type", event.Type)
		return
	}

	conversationID := event.Data.ConversationID
	replyText := event.Data.Text

	ctx = logging.WithConversationID(ctx, conversationID)

	switch {
	case r.table.Resolve(conversationID, replyText):
		metrics.RepliesTotal.WithLabelValues("resolved").Inc()
		metrics.PendingRequests.Set(float64(r.table.Len()))
	case conversationID == constants.BroadcastConversationID:
		r.broadcast(ctx, replyText)
	default:
		metrics.RepliesTotal.WithLabelValues("unknown").Inc()
		r.logger.WarnwCtx(ctx, "Received reply for unknown conversation")
	}
}

// broadcast fans the text out to every known chat. Delivery is best effort:
// a failing recipient is logged and skipped, and a failed rendered delivery
// falls back to the unrendered text.
func (r *Router) broadcast(ctx context.Context, text string) {
	chats := r.registry.List()
	r.logger.InfowCtx(ctx, "Broadcasting message", "known_chats", len(chats))

	rendered, err := render.Render(text)
	if err != nil {
		metrics.RenderFailuresTotal.Inc()
		r.logger.WarnwCtx(ctx, "Failed to render broadcast, using plain text", "error", err)
		rendered = ""
	}

	for _, chatID := range chats {
		if rendered != "" {
			if err := r.frontend.DeliverText(ctx, chatID, rendered, true); err == nil {
				metrics.BroadcastDeliveries.WithLabelValues("delivered").Inc()
				continue
			}
		}
		if err := r.frontend.DeliverText(ctx, chatID, text, false); err != nil {
			metrics.BroadcastDeliveries.WithLabelValues("failed").Inc()
			r.logger.WarnwCtx(ctx, "Failed to broadcast to chat", "chat_id", chatID, "error", err)
			continue
		}
		metrics.BroadcastDeliveries.WithLabelValues("delivered").Inc()
	}
}
