// Package telegram is a minimal Bot API client covering what the review
// workflow needs: messages, inline keyboards, long-polled updates, and
// callback answers.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/thebeakers/spsdaily/pkg/article"
)

// Update is one entry from getUpdates.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an incoming chat message. Only the text matters here.
type Message struct {
	Text string `json:"text"`
}

// CallbackQuery is an inline-keyboard button press.
type CallbackQuery struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// Client talks to the Telegram Bot API for one bot and one curator chat.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
}

// New creates a client. baseURL is overridable for tests; empty means the
// public API host.
func New(token, chatID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Client{
		client:  &http.Client{Timeout: 45 * time.Second},
		baseURL: baseURL,
		token:   token,
		chatID:  chatID,
	}
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) post(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s status %d", method, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// SendMessage sends HTML-formatted text to the curator chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.post(ctx, "sendMessage", map[string]any{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}, nil)
}

// SendReview sends one candidate as a review card with Approve / Reject /
// Editor's Pick buttons. The callback data encodes (action, category, index).
func (c *Client) SendReview(ctx context.Context, cand *article.Candidate, index int) error {
	keyboard := map[string]any{
		"inline_keyboard": [][]map[string]string{
			{
				{"text": "Approve", "callback_data": fmt.Sprintf("approve:%s:%d", cand.Category, index)},
				{"text": "Reject", "callback_data": fmt.Sprintf("reject:%s:%d", cand.Category, index)},
			},
			{
				{"text": "Editor's Pick", "callback_data": fmt.Sprintf("pick:%s:%d", cand.Category, index)},
			},
		},
	}

	return c.post(ctx, "sendMessage", map[string]any{
		"chat_id":      c.chatID,
		"text":         reviewText(cand),
		"parse_mode":   "HTML",
		"reply_markup": keyboard,
	}, nil)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var result struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	err := c.post(ctx, "getUpdates", map[string]any{
		"offset":  offset,
		"timeout": 30,
	}, &result)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: not ok")
	}
	return result.Result, nil
}

// AnswerCallback acknowledges a button press with a short result text.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return c.post(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
	}, nil)
}

// reviewText formats a candidate for the curator, quality metrics included.
func reviewText(cand *article.Candidate) string {
	var metrics string
	if cand.WordCount > 0 {
		readingMin := cand.WordCount / 220
		if readingMin < 1 {
			readingMin = 1
		}
		metrics = fmt.Sprintf("<i>%d words | ~%d min | score %.2f</i>\n",
			cand.WordCount, readingMin, cand.FinalScore)
	}

	links := fmt.Sprintf(`<a href="%s">Original</a>`, cand.URL)
	if cand.SnapshotURL != "" {
		links += fmt.Sprintf(` | <a href="%s">Archive</a>`, cand.SnapshotURL)
	}

	text := fmt.Sprintf("<b>%s</b>\n%s<b>%s</b>\n\n%s\n",
		html.EscapeString(cand.Category),
		metrics,
		html.EscapeString(cand.Headline),
		html.EscapeString(cand.Teaser))
	if cand.Rationale != "" {
		text += fmt.Sprintf("\n<i>%s</i>\n", html.EscapeString(cand.Rationale))
	}
	text += fmt.Sprintf("\n<i>Source: %s</i>\n%s", html.EscapeString(cand.Source), links)
	return text
}
