// Package supervisor owns the lifecycle of the single backend stream:
// session acquisition, the WebSocket connection, the concurrent read/write
// pumps, failure detection with exponential backoff, and the reconnect-time
// resynchronization of the send queue against unresolved conversations.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"courier/internal/constants"
	"courier/internal/correlate"
	"courier/internal/logger"
	"courier/internal/relay"
	"courier/pkg/metrics"
	"courier/pkg/retry"
)

// FrameRouter consumes raw frames read from the stream.
type FrameRouter interface {
	Route(ctx context.Context, raw []byte)
}

type Config struct {
	BaseURL        string
	SessionTimeout time.Duration
	BackoffFloor   time.Duration
	BackoffCap     time.Duration
}

type Supervisor struct {
	cfg    Config
	table  *correlate.Table
	queue  *relay.Queue
	router FrameRouter
	logger logger.Logger

	httpClient *http.Client
	dialer     *websocket.Dialer
	connected  atomic.Bool
}

func New(cfg Config, table *correlate.Table, queue *relay.Queue, router FrameRouter, log logger.Logger) *Supervisor {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = constants.SessionHTTPTimeout
	}
	if cfg.BackoffFloor <= 0 {
		cfg.BackoffFloor = constants.BackoffFloor
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = constants.BackoffCap
	}

	return &Supervisor{
		cfg:        cfg,
		table:      table,
		queue:      queue,
		router:     router,
		logger:     log,
		httpClient: &http.Client{Timeout: cfg.SessionTimeout},
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.SessionTimeout,
		},
	}
}

// Connected reports whether the stream is currently established.
func (s *Supervisor) Connected() bool {
	return s.connected.Load()
}

// Run maintains the stream until ctx is cancelled. Connection failures are
// never fatal: pending conversations stay registered, and the loop retries
// with exponential backoff (doubling from the floor, capped, reset to the
// floor on every successful connect).
func (s *Supervisor) Run(ctx context.Context) error {
	bo := retry.ReconnectBackoff(s.cfg.BackoffFloor, s.cfg.BackoffCap)

	for {
		err := s.connect(ctx, bo)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.NextBackOff()
		metrics.ReconnectsTotal.Inc()
		s.logger.ErrorwCtx(ctx, "Stream connection lost, retrying",
			"error", err,
			"retry_in", wait,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (s *Supervisor) connect(ctx context.Context, bo backoff.BackOff) error {
	sessionID, err := s.acquireSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}

	url := s.streamURL(sessionID)
	s.logger.InfowCtx(ctx, "Connecting to backend stream", "url", url)

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", url, err)
	}
	defer conn.Close()

	s.logger.InfowCtx(ctx, "Stream connected", "session_id", sessionID)
	bo.Reset()
	s.connected.Store(true)
	defer s.connected.Store(false)

	s.resync(ctx)

	g, gCtx := errgroup.WithContext(ctx)

	// ReadMessage does not honor ctx; closing the connection unblocks the
	// reader when the writer (or ctx) fails first.
	go func() {
		<-gCtx.Done()
		conn.Close()
	}()

	g.Go(func() error {
		return s.writer(gCtx, conn)
	})
	g.Go(func() error {
		return s.reader(gCtx, conn)
	})

	return g.Wait()
}

// resync replaces the queue contents with every still-unresolved envelope,
// in registration order. Taking the snapshot inside Reload's critical
// section means stale entries are discarded and unresolved ones re-queued
// with no window for an interleaved enqueue: a concurrently arriving chat
// message can only land after the re-queued set.
func (s *Supervisor) resync(ctx context.Context) {
	requeued := 0
	s.queue.Reload(func() [][]byte {
		snapshot := s.table.SnapshotUnresolved()
		payloads := make([][]byte, 0, len(snapshot))
		for _, entry := range snapshot {
			payloads = append(payloads, entry.Envelope)
		}
		requeued = len(payloads)
		return payloads
	})

	if requeued > 0 {
		metrics.RequeuedTotal.Add(float64(requeued))
		s.logger.InfowCtx(ctx, "Re-queued pending messages after reconnect", "count", requeued)
	}
}

func (s *Supervisor) writer(ctx context.Context, conn *websocket.Conn) error {
	for {
		payload, err := s.queue.DequeueNext(ctx)
		if err != nil {
			return err
		}

		// A failed write leaves the envelope registered in the table,
		// so it is re-sent verbatim after the next reconnect.
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
		metrics.FramesTotal.WithLabelValues("out").Inc()
	}
}

func (s *Supervisor) reader(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		metrics.FramesTotal.WithLabelValues("in").Inc()
		s.router.Route(ctx, raw)
	}
}

// acquireSession performs the synchronous session handshake and returns the
// plain-text session token.
func (s *Supervisor) acquireSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+constants.SessionPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build session request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("session request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read session response: %w", err)
	}

	sessionID := strings.TrimSpace(string(body))
	if sessionID == "" {
		return "", fmt.Errorf("session response was empty")
	}
	return sessionID, nil
}

// streamURL derives the WebSocket endpoint from the configured base URL,
// transposing the scheme (http→ws, https→wss).
func (s *Supervisor) streamURL(sessionID string) string {
	base := strings.Replace(s.cfg.BaseURL, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	return fmt.Sprintf("%s%s/%s", base, constants.SessionPath, sessionID)
}
