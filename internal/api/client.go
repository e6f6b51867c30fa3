package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jomkira/internal/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	HeaderPlatform  = "X-Platform"
	HeaderSessionID = "X-Session-Id"

	maxResponseBytes = 4 << 20
)

// MessagePayload is the {role, content, image} projection of a ChatMessage.
type MessagePayload struct {
	Role    string        `json:"role"`
	Content string        `json:"content"`
	Image   *models.Image `json:"image,omitempty"`
}

type ChatRequest struct {
	Messages       []MessagePayload `json:"messages"`
	InitialBalance *float64         `json:"initial_balance,omitempty"`
	IsInit         bool             `json:"is_init,omitempty"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type ChatResponse struct {
	SessionID string            `json:"session_id,omitempty"`
	Message   ResponseMessage   `json:"message"`
	ToolCalls []models.ToolCall `json:"tool_calls,omitempty"`
	// State is nil when the server omitted it or sent null or {}.
	State *models.BankingState `json:"-"`
}

// Project maps transcript messages onto the wire shape.
func Project(msgs []models.ChatMessage) []MessagePayload {
	out := make([]MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessagePayload{Role: m.Role, Content: m.Content, Image: m.Image})
	}
	return out
}

// Client talks to POST {base_url}/api/chat.
type Client struct {
	httpClient *http.Client
	endpoint   string
	platform   string
	log        *zap.Logger
}

func NewClient(endpoint, platform string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		platform:   platform,
		log:        log,
	}
}

// Chat sends one conversational turn. The response must carry message.content.
func (c *Client) Chat(ctx context.Context, req ChatRequest, sessionID string) (*ChatResponse, error) {
	return c.do(ctx, req, sessionID, true)
}

// Init establishes a session without user-visible content, so message.content
// is optional in its response.
func (c *Client) Init(ctx context.Context, req ChatRequest, sessionID string) (*ChatResponse, error) {
	req.IsInit = true
	return c.do(ctx, req, sessionID, false)
}

func (c *Client) do(ctx context.Context, req ChatRequest, sessionID string, requireContent bool) (*ChatResponse, error) {
	if req.Messages == nil {
		req.Messages = []MessagePayload{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderPlatform, c.platform)
	if sessionID != "" {
		httpReq.Header.Set(HeaderSessionID, sessionID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("chat request failed", zap.Error(err))
		return nil, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("chat response",
		zap.Int("status", resp.StatusCode),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("is_init", req.IsInit),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &Error{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Err: err}
	}
	out, err := DecodeResponse(data, requireContent)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}
	return out, nil
}

// DecodeResponse validates the response shape and decodes it.
func DecodeResponse(data []byte, requireContent bool) (*ChatResponse, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("response is not an object")
	}
	if content := root.Get("message.content"); requireContent && content.Type != gjson.String {
		return nil, ErrMissingContent
	}

	var out ChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	if state := root.Get("state"); state.IsObject() && len(state.Map()) > 0 {
		var st models.BankingState
		if err := json.Unmarshal([]byte(state.Raw), &st); err != nil {
			return nil, fmt.Errorf("invalid state: %w", err)
		}
		out.State = &st
	}
	return &out, nil
}
