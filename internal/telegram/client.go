package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client sends messages to a single Telegram chat.
type Client struct {
	http   *resty.Client
	token  string
	chatID string
}

// NewClient returns a client for the bot identified by token.
func NewClient(token, chatID string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(DefaultBaseURL).SetTimeout(15 * time.Second),
		token:  token,
		chatID: chatID,
	}
}

// WithBaseURL points the client at a different API endpoint.
func (c *Client) WithBaseURL(url string) *Client {
	c.http.SetBaseURL(url)
	return c
}

type apiResponse struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

// Notify sends text as a Markdown message.
func (c *Client) Notify(ctx context.Context, text string) error {
	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("token", c.token).
		SetBody(map[string]string{
			"chat_id":    c.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&result).
		SetError(&result).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	if resp.IsError() || !result.Ok {
		return fmt.Errorf("telegram API error: %s (code %d, status %s)", result.Description, result.ErrorCode, resp.Status())
	}
	return nil
}
