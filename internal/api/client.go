package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ridepool/internal/domain/chat"
)

// Config defines REST client settings.
type Config struct {
	BaseURL     string
	Token       string
	CallTimeout time.Duration
}

// ConversationPage is the wire shape of a conversation-list page. The
// backend reports pagination explicitly for conversations only.
type ConversationPage struct {
	Items       []chat.Conversation `json:"items"`
	HasNextPage bool                `json:"hasNextPage"`
}

// Gateway is the transport surface the stores depend on.
type Gateway interface {
	ListConversations(ctx context.Context, page int) (ConversationPage, error)
	ListMessages(ctx context.Context, reservationID string, page int) ([]chat.Message, error)
	SendMessage(ctx context.Context, reservationID, content string) (chat.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	MarkAllSeen(ctx context.Context, reservationID string) error
}

// APIError carries a non-2xx backend response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Body)
}

// Client issues authenticated calls against the marketplace backend.
type Client struct {
	http        *http.Client
	baseURL     string
	token       string
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewClient builds a typed client for the backend origin.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api: base url required")
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:        &http.Client{},
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		callTimeout: timeout,
		logger:      logger,
	}, nil
}

// ListConversations fetches one page of the conversation list.
func (c *Client) ListConversations(ctx context.Context, page int) (ConversationPage, error) {
	var out ConversationPage
	err := c.call(ctx, http.MethodGet, "/conversations/"+strconv.Itoa(page), nil, &out)
	if err != nil {
		return ConversationPage{}, err
	}
	return out, nil
}

// ListMessages fetches one page of a conversation feed, newest first.
func (c *Client) ListMessages(ctx context.Context, reservationID string, page int) ([]chat.Message, error) {
	var out []chat.Message
	path := "/messages/" + url.PathEscape(reservationID) + "/" + strconv.Itoa(page)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts content to a conversation and returns the persisted
// message.
func (c *Client) SendMessage(ctx context.Context, reservationID, content string) (chat.Message, error) {
	body := map[string]string{"content": content}
	var out chat.Message
	path := "/messages/" + url.PathEscape(reservationID)
	if err := c.call(ctx, http.MethodPost, path, body, &out); err != nil {
		return chat.Message{}, err
	}
	return out, nil
}

// MarkSeen records that one message was viewed.
func (c *Client) MarkSeen(ctx context.Context, messageID string) error {
	return c.call(ctx, http.MethodPut, "/messages/mark-as-seen/"+url.PathEscape(messageID), nil, nil)
}

// MarkAllSeen records that a whole conversation was viewed.
func (c *Client) MarkAllSeen(ctx context.Context, reservationID string) error {
	return c.call(ctx, http.MethodPut, "/messages/mark-all-as-seen/"+url.PathEscape(reservationID), nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(request)
	if err != nil {
		c.logError(method, path, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := &APIError{Status: resp.StatusCode, Body: string(snippet)}
		c.logError(method, path, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logError(method, path, err)
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) logError(method, path string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error("api call failed", "method", method, "path", path, "error", err)
}

var _ Gateway = (*Client)(nil)
