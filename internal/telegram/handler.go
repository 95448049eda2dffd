package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"courier/internal/constants"
	"courier/internal/correlate"
	"courier/internal/envelope"
	"courier/internal/logger"
	"courier/internal/relay"
	"courier/internal/render"
	"courier/pkg/logging"
	"courier/pkg/metrics"
)

// Sender is the delivery surface the handler needs from the Bot API client.
type Sender interface {
	DeliverText(ctx context.Context, chatID, text string, html bool) error
}

// Handler runs the per-message flow: authorize, register the conversation,
// queue the envelope for the stream writer, then wait for the backend reply
// or time out.
type Handler struct {
	codec        *envelope.Codec
	table        *correlate.Table
	queue        *relay.Queue
	registry     *relay.ChatRegistry
	sender       Sender
	allowed      map[string]struct{}
	replyTimeout time.Duration
	logger       logger.Logger
}

func NewHandler(
	codec *envelope.Codec,
	table *correlate.Table,
	queue *relay.Queue,
	registry *relay.ChatRegistry,
	sender Sender,
	allowed map[string]struct{},
	replyTimeout time.Duration,
	log logger.Logger,
) *Handler {
	if replyTimeout <= 0 {
		replyTimeout = constants.DefaultReplyTimeout
	}

	return &Handler{
		codec:        codec,
		table:        table,
		queue:        queue,
		registry:     registry,
		sender:       sender,
		allowed:      allowed,
		replyTimeout: replyTimeout,
		logger:       log,
	}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	h.registry.Add(chatID)

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if !h.authorized(msg.From) {
		h.logger.WarnwCtx(ctx, "Unauthorized access attempt",
			"user_id", userID(msg.From),
			"username", username(msg.From),
		)
		return
	}

	// The chat's own id doubles as the long-lived conversation id.
	conversationID := chatID
	ctx = logging.WithConversationID(ctx, conversationID)

	payload, err := h.codec.BuildInbound(conversationID, chatID, text)
	if err != nil {
		h.logger.ErrorwCtx(ctx, "Failed to build inbound event", "error", err)
		return
	}

	pending := h.table.Register(conversationID, payload)
	metrics.PendingRequests.Set(float64(h.table.Len()))
	h.queue.Enqueue(payload)
	h.logger.InfowCtx(ctx, "Queued inbound event", "chat_id", chatID)

	waitCtx, cancel := context.WithTimeout(ctx, h.replyTimeout)
	defer cancel()

	reply, err := pending.Wait(waitCtx)
	if err != nil {
		// Cancel only our own slot; a newer registration for this
		// conversation must survive this timeout.
		h.table.Cancel(conversationID, pending)
		metrics.PendingRequests.Set(float64(h.table.Len()))
		metrics.ReplyTimeoutsTotal.Inc()
		h.logger.WarnwCtx(ctx, "No reply within timeout", "chat_id", chatID, "error", err)

		if err := h.sender.DeliverText(ctx, chatID, constants.TimeoutNotice, false); err != nil {
			h.logger.WarnwCtx(ctx, "Failed to deliver timeout notice", "error", err)
		}
		return
	}

	metrics.PendingRequests.Set(float64(h.table.Len()))
	h.deliverReply(ctx, chatID, reply)
}

// deliverReply sends the rendered reply, falling back to the raw text when
// rendering or the HTML delivery fails.
func (h *Handler) deliverReply(ctx context.Context, chatID, reply string) {
	rendered, err := render.Render(reply)
	if err == nil {
		if err := h.sender.DeliverText(ctx, chatID, rendered, true); err == nil {
			return
		}
		h.logger.WarnwCtx(ctx, "Failed to send HTML reply, falling back to plain text", "error", err)
	} else {
		metrics.RenderFailuresTotal.Inc()
		h.logger.WarnwCtx(ctx, "Failed to render reply, falling back to plain text", "error", err)
	}

	if err := h.sender.DeliverText(ctx, chatID, reply, false); err != nil {
		h.logger.ErrorwCtx(ctx, "Failed to deliver reply", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) authorized(user *User) bool {
	if len(h.allowed) == 0 {
		return true
	}
	if user == nil {
		return false
	}

	if _, ok := h.allowed[strconv.FormatInt(user.ID, 10)]; ok {
		return true
	}
	if user.Username != "" {
		if _, ok := h.allowed[user.Username]; ok {
			return true
		}
	}
	return false
}

func userID(user *User) string {
	if user == nil {
		return ""
	}
	return strconv.FormatInt(user.ID, 10)
}

func username(user *User) string {
	if user == nil {
		return ""
	}
	return user.Username
}
