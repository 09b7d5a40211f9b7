package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wildguard_backend/platform/logger"
)

// Config provides the settings the LINE client needs.
type Config interface {
	GetLineAPIBaseURL() string
	GetLineDataBaseURL() string
	GetLineChannelAccessToken() string
}

// Client calls the LINE Messaging API. Reply tokens are single-use, so
// Reply is never retried; content downloads are idempotent and retried once.
type Client struct {
	apiBase  string
	dataBase string
	token    string
	http     *http.Client
	log      *logger.Logger
}

// NewClient builds a messaging API client with bounded timeouts.
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		apiBase:  strings.TrimRight(cfg.GetLineAPIBaseURL(), "/"),
		dataBase: strings.TrimRight(cfg.GetLineDataBaseURL(), "/"),
		token:    cfg.GetLineChannelAccessToken(),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []ReplyMessage `json:"messages"`
}

// Reply sends up to five messages correlated to an inbound delivery.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []ReplyMessage) error {
	if replyToken == "" || len(messages) == 0 {
		return nil
	}
	if len(messages) > 5 {
		messages = messages[:5]
	}

	body, err := json.Marshal(replyRequest{ReplyToken: replyToken, Messages: messages})
	if err != nil {
		return fmt.Errorf("marshal reply payload: %w", err)
	}

	url := c.apiBase + "/v2/bot/message/reply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("line reply request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("line reply returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

// GetMessageContent downloads the binary content of an inbound message.
// Platform images are single-digit megabytes, so the body is buffered fully.
// The download is idempotent and retried once on failure.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		data, contentType, err := c.getContentOnce(ctx, messageID)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", lastErr
}

func (c *Client) getContentOnce(ctx context.Context, messageID string) ([]byte, string, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("line content request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("line content returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read line content: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return data, contentType, nil
}
