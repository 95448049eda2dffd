package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// sendRate paces outgoing messages below the Bot API global limit of
// roughly 30 messages per second.
const sendRate = 25

// Client is a minimal Telegram Bot API client: long-polled updates in,
// rate-limited sendMessage out.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(token string, pollTimeout time.Duration) *Client {
	return &Client{
		token:   token,
		baseURL: defaultAPIBaseURL,
		httpClient: &http.Client{
			// The long poll holds the request open for pollTimeout.
			Timeout: pollTimeout + 10*time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(sendRate), sendRate),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("%s rejected: %s", method, api.Description)
	}

	if result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := map[string]interface{}{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// DeliverText sends text to a chat. When html is true the text is sent with
// HTML parse mode; callers fall back to a plain send if Telegram rejects
// the markup.
func (c *Client) DeliverText(ctx context.Context, chatID, text string, html bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if html {
		params["parse_mode"] = "HTML"
	}
	return c.call(ctx, "sendMessage", params, nil)
}
