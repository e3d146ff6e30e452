package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"messenger-bot-demo/backend/pkg/logger"
)

// SenderAction is a presence indicator sent to one recipient
type SenderAction string

const (
	ActionMarkSeen  SenderAction = "mark_seen"
	ActionTypingOn  SenderAction = "typing_on"
	ActionTypingOff SenderAction = "typing_off"
)

// OutgoingMessage is a message the bot sends through the Send API
type OutgoingMessage struct {
	Text         string               `json:"text,omitempty"`
	Attachment   *Attachment          `json:"attachment,omitempty"`
	QuickReplies []OutgoingQuickReply `json:"quick_replies,omitempty"`
}

// OutgoingQuickReply offers the user one tappable reply option
type OutgoingQuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Payload     string `json:"payload,omitempty"`
}

// TextMessage builds a plain text outgoing message
func TextMessage(text string) OutgoingMessage {
	return OutgoingMessage{Text: text}
}

// Profile holds the fields the platform profile API exposes for a user
type Profile struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	ProfilePic string   `json:"profile_pic"`
	Gender     string   `json:"gender"`
	Locale     string   `json:"locale"`
	Timezone   *float64 `json:"timezone"`
}

// TransportError reports a failed platform API call: a network error or a
// non-2xx response.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: platform returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to the platform Graph API: the Send API for messages and
// presence actions, and the profile endpoint for user enrichment. It carries
// no retry policy; retrying is the caller's decision.
type Client struct {
	client      *http.Client
	baseURL     string
	accessToken string
	log         *logger.Logger
}

// NewClient creates a platform client
func NewClient(baseURL, accessToken string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:      &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: accessToken,
		log:         log,
	}
}

// sendRequest is the Send API body: a recipient plus either a message or a
// sender action.
type sendRequest struct {
	Recipient    Principal        `json:"recipient"`
	Message      *OutgoingMessage `json:"message,omitempty"`
	SenderAction SenderAction     `json:"sender_action,omitempty"`
}

// SendMessage sends one message to one recipient
func (c *Client) SendMessage(ctx context.Context, recipientID string, msg OutgoingMessage) error {
	return c.send(ctx, sendRequest{
		Recipient: Principal{ID: recipientID},
		Message:   &msg,
	})
}

// SendAction sends a presence indicator to one recipient
func (c *Client) SendAction(ctx context.Context, recipientID string, action SenderAction) error {
	return c.send(ctx, sendRequest{
		Recipient:    Principal{ID: recipientID},
		SenderAction: action,
	})
}

// MarkSeen marks the conversation as seen
func (c *Client) MarkSeen(ctx context.Context, recipientID string) error {
	return c.SendAction(ctx, recipientID, ActionMarkSeen)
}

// TypingOn shows the typing indicator
func (c *Client) TypingOn(ctx context.Context, recipientID string) error {
	return c.SendAction(ctx, recipientID, ActionTypingOn)
}

// TypingOff hides the typing indicator
func (c *Client) TypingOff(ctx context.Context, recipientID string) error {
	return c.SendAction(ctx, recipientID, ActionTypingOff)
}

func (c *Client) send(ctx context.Context, req sendRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.baseURL, url.QueryEscape(c.accessToken))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		c.log.Warn("Send API error response",
			"status", httpResp.StatusCode,
			"recipient", req.Recipient.ID,
			"body", string(body),
		)
		return &TransportError{Op: "send", StatusCode: httpResp.StatusCode}
	}

	return nil
}

// FetchProfile looks up a user's public profile. Callers treat failures as
// best-effort; a user row is still created with blank fields.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*Profile, error) {
	endpoint := fmt.Sprintf(
		"%s/%s?fields=first_name,last_name,profile_pic,gender,locale,timezone&access_token=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(c.accessToken),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "profile", Err: err}
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "profile", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &TransportError{Op: "profile", StatusCode: httpResp.StatusCode}
	}

	var profile Profile
	if err := json.NewDecoder(httpResp.Body).Decode(&profile); err != nil {
		return nil, &TransportError{Op: "profile", Err: err}
	}
	return &profile, nil
}
