package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/convo/internal/observability"
	"github.com/ent0n29/convo/internal/reliability"
)

const (
	webhookPath = "/webhooks/rest/webhook"
	statusPath  = "/status"
	trainPath   = "/model/train"
	parsePath   = "/model/parse"

	// SessionHeader carries the client session id on every request.
	SessionHeader = "X-Session-ID"

	maxResponseBytes = 4 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each call. Zero leaves calls bounded only by ctx.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Client talks to a Rasa-compatible REST backend. It holds no per-session
// state and is safe for concurrent use. Calls are never retried.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		client:  httpClient,
		logger:  logger.Named("nlu"),
		metrics: opts.Metrics,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Send posts msg to the REST webhook and returns the bot replies.
func (c *Client) Send(ctx context.Context, msg Message) ([]Response, error) {
	var out []Response
	if err := c.do(ctx, "send", http.MethodPost, webhookPath, msg.Metadata.SessionID, msg, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Response{}
	}
	return out, nil
}

// Status reports whether the backend has a loaded model. Any failure reads as false.
func (c *Client) Status(ctx context.Context, sessionID string) bool {
	var report statusReport
	if err := c.do(ctx, "status", http.MethodGet, statusPath, sessionID, nil, &report); err != nil {
		return false
	}
	return report.ModelFile != ""
}

// Train asks the backend to start training. True means the request was
// acknowledged with a success status; the body is not inspected.
func (c *Client) Train(ctx context.Context, sessionID string, req TrainRequest) bool {
	if err := c.do(ctx, "train", http.MethodPost, trainPath, sessionID, req, nil); err != nil {
		return false
	}
	c.logger.Info("model training initiated",
		zap.String("session_id", sessionID),
		zap.Strings("training_files", req.TrainingFiles),
	)
	return true
}

// Parse runs intent and entity extraction for text.
func (c *Client) Parse(ctx context.Context, sessionID, text string) (ParseResult, error) {
	var out ParseResult
	if err := c.do(ctx, "parse", http.MethodPost, parsePath, sessionID, map[string]string{"text": text}, &out); err != nil {
		return ParseResult{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path, sessionID string, body, out any) (err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.ObserveGatewayCall(op, outcome, time.Since(start))
		if err != nil {
			c.logger.Warn("nlu request failed",
				zap.String("op", op),
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}()
	fail := func(status int, class string, cause error) error {
		outcome = class
		return &GatewayError{Op: op, StatusCode: status, Class: class, Err: cause}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(0, reliability.ClassMalformed, fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fail(0, reliability.ClassNetwork, fmt.Errorf("create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fail(0, reliability.ClassNetwork, fmt.Errorf("send request: %w", err))
	}
	defer res.Body.Close()

	if class := reliability.ClassifyHTTPStatus(res.StatusCode); class != "" {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fail(res.StatusCode, class, fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return fail(0, reliability.ClassNetwork, fmt.Errorf("read response: %w", err))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(0, reliability.ClassMalformed, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
