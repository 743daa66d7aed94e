// Package gateway speaks the JSON wire protocol of the spreadsheet-backed
// remote store: one bulk read, fire-and-forget mutations and an image
// analysis round-trip, all against a single endpoint URL.
package gateway

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
	"strings"
	"time"

	"github.com/starford/lifeos/internal/apperr"
	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/models"
)

// Action names a remote operation.
type Action string

// Remote actions.
const (
	ActionGetAll       Action = "getAllData"
	ActionAdd          Action = "add"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionSaveSettings Action = "saveSettings"
	ActionAnalyze      Action = "analyzeImage"
)

// Kind selects the remote image classifier.
type Kind string

// Analysis kinds.
const (
	KindFood   Kind = "food"
	KindInBody Kind = "inbody"
)

const (
	statusSuccess   = "success"
	maxResponseSize = 16 << 20 // 16 MB
	defaultTimeout  = 30 * time.Second
)

// Client is the HTTP client of the remote store.
type Client struct {
	endpoint string
	http     *http.Client
	norm     *dates.Normalizer
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithNormalizer sets the date normalizer applied to outgoing payloads.
func WithNormalizer(n *dates.Normalizer) Option {
	return func(c *Client) { c.norm = n }
}

// New creates a Client for endpoint. Each request is bounded by timeout.
func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: timeout},
		norm:     dates.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an http(s) endpoint is configured.
func (c *Client) Enabled() bool {
	return strings.HasPrefix(c.endpoint, "http://") || strings.HasPrefix(c.endpoint, "https://")
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type mutation struct {
	Action Action  `json:"action"`
	Sheet  *string `json:"sheet"`
	Data   any     `json:"data"`
	UserID string  `json:"userId"`
}

type analysis struct {
	Action Action `json:"action"`
	Image  string `json:"image"`
	Type   Kind   `json:"type"`
}

// FetchAll reads every record and the settings of userID.
//
// A nil error always comes with a non-nil Bulk, possibly with empty lists.
func (c *Client) FetchAll(ctx context.Context, userID string) (*models.Bulk, error) {
	if !c.Enabled() {
		return nil, apperr.ErrDisabled
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, c.fail(ActionGetAll, fmt.Errorf("%w: parse endpoint: %v", apperr.ErrTransport, err))
	}
	q := u.Query()
	q.Set("action", string(ActionGetAll))
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, c.fail(ActionGetAll, fmt.Errorf("%w: %v", apperr.ErrTransport, err))
	}
	env, err := c.do(req)
	if err != nil {
		return nil, c.fail(ActionGetAll, err)
	}

	var data map[string]any
	if err := json.Unmarshal(env.Data, &data); err != nil || data == nil {
		return nil, c.fail(ActionGetAll, fmt.Errorf("%w: data is not an object", apperr.ErrProtocol))
	}
	bulk := models.DecodeBulk(data, c.norm.Normalize)
	c.logger.Debug("gateway: fetched",
		slog.String("user_id", userID),
		slog.Int("records", bulk.Len()))
	return bulk, nil
}

// Post sends one mutation. category may be empty for actions that are not
// scoped to a sheet (saveSettings). Any "date" field of payload is
// normalized before sending.
func (c *Client) Post(ctx context.Context, action Action, category models.Category, payload any, userID string) error {
	if !c.Enabled() {
		return apperr.ErrDisabled
	}
	data, err := c.normalizePayload(payload)
	if err != nil {
		return c.fail(action, fmt.Errorf("%w: encode payload: %v", apperr.ErrProtocol, err))
	}
	body := mutation{Action: action, Data: data, UserID: userID}
	if category != "" {
		sheet := category.Sheet()
		body.Sheet = &sheet
	}
	if _, err := c.postJSON(ctx, body); err != nil {
		return c.fail(action, err)
	}
	c.logger.Debug("gateway: posted",
		slog.String("action", string(action)),
		slog.String("sheet", category.Sheet()))
	return nil
}

// Analyze sends an image (as a base64 data URL) to the remote classifier
// and returns its category-specific fields.
func (c *Client) Analyze(ctx context.Context, image string, kind Kind) (map[string]any, error) {
	if !c.Enabled() {
		return nil, apperr.ErrDisabled
	}
	env, err := c.postJSON(ctx, analysis{Action: ActionAnalyze, Image: image, Type: kind})
	if err != nil {
		return nil, c.fail(ActionAnalyze, err)
	}
	var out map[string]any
	if err := json.Unmarshal(env.Data, &out); err != nil || out == nil {
		return nil, c.fail(ActionAnalyze, fmt.Errorf("%w: analysis data is not an object", apperr.ErrProtocol))
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, body any) (*envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", apperr.ErrProtocol, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: status %d", apperr.ErrTransport, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apperr.ErrTransport, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", apperr.ErrProtocol, err)
	}
	if env.Status != statusSuccess {
		return nil, fmt.Errorf("%w: status %q %s", apperr.ErrProtocol, env.Status, env.Message)
	}
	return &env, nil
}

// normalizePayload turns payload into a JSON object and canonicalizes its date.
// Non-object payloads are sent as they are.
func (c *Client) normalizePayload(payload any) (any, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return json.RawMessage(raw), nil
	}
	if v, ok := obj["date"]; ok {
		obj["date"] = c.norm.Normalize(v)
	}
	return obj, nil
}

// fail logs err with its failure kind and returns it unchanged.
func (c *Client) fail(action Action, err error) error {
	kind := "unknown"
	switch {
	case errors.Is(err, apperr.ErrTransport):
		kind = "transport"
	case errors.Is(err, apperr.ErrProtocol):
		kind = "protocol"
	}
	c.logger.Warn("gateway: request failed",
		slog.String("action", string(action)),
		slog.String("kind", kind),
		slog.String("error", err.Error()))
	return err
}
