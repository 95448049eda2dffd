package telegram

import (
	"context"
	"strings"
	"time"

	"courier/internal/logger"
)

// Poller long-polls the Bot API and hands every text message to the
// handler in its own goroutine, so one slow conversation never blocks the
// rest.
type Poller struct {
	client      *Client
	handler     *Handler
	pollTimeout time.Duration
	logger      logger.Logger
}

func NewPoller(client *Client, handler *Handler, pollTimeout time.Duration, log logger.Logger) *Poller {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}

	return &Poller{
		client:      client,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      log,
	}
}

func (p *Poller) Run(ctx context.Context) error {
	offset := p.dropPendingUpdates(ctx)
	p.logger.InfowCtx(ctx, "Telegram polling started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WarnwCtx(ctx, "Failed to fetch updates", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}

			msg := update.Message
			if msg == nil || msg.Text == "" {
				continue
			}
			// Commands are not forwarded to the backend.
			if strings.HasPrefix(msg.Text, "/") {
				continue
			}

			go p.handler.HandleMessage(ctx, msg)
		}
	}
}

// dropPendingUpdates discards any backlog accumulated while the connector
// was down and returns the next offset to poll from.
func (p *Poller) dropPendingUpdates(ctx context.Context) int64 {
	updates, err := p.client.GetUpdates(ctx, -1, 0)
	if err != nil || len(updates) == 0 {
		return 0
	}
	return updates[len(updates)-1].UpdateID + 1
}
