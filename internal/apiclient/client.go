package apiclient

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
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadlens/internal/form"
	"leadlens/internal/logging"
	"leadlens/internal/services"
)

const (
	// SaveToSheetsPath is the lead endpoint served by internal/server.
	SaveToSheetsPath = "/api/saveToSheets"

	defaultBaseURL     = "http://localhost:8016"
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
	defaultHTTPTimeout = 15 * time.Second
	timestampLayout    = "2006-01-02T15:04:05.000Z"
)

// Config captures the runtime settings for the client.
type Config struct {
	BaseURL     string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
}

// Response is the JSON envelope returned by the lead endpoint.
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Exists  bool              `json:"exists,omitempty"`
	Action  string            `json:"action,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client is the backend API client. Construct it once and share it.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(time.Duration)
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a client using the supplied configuration.
func New(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "apiclient")
	return client
}

// SaveFormData posts a new or returning lead.
func (c *Client) SaveFormData(ctx context.Context, data form.Data) (Response, error) {
	payload := map[string]any{
		"timestamp":     c.timestamp(),
		"name":          data.Name,
		"email":         data.Email,
		"favoriteColor": data.FavoriteColor,
	}
	resp, err := c.fetchWithRetry(ctx, http.MethodPost, c.cfg.BaseURL+SaveToSheetsPath, payload)
	if err != nil {
		return Response{}, services.Wrap(services.KindSheets, "save form data", "Failed to save form data", services.ClassifyAPIError("save form data", err))
	}
	return resp, nil
}

// CheckEmailExists reports whether the backend knows email. Any failure is
// logged and reported as false.
func (c *Client) CheckEmailExists(ctx context.Context, email string) bool {
	endpoint := c.BuildRequestURL(SaveToSheetsPath, map[string]any{"email": email})
	resp, err := c.fetchWithRetry(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logging.WarnWithContext(ctx, c.logger, "email existence check failed", "email_check_failed",
			logging.Email(email),
			logging.Error(err),
			logging.String(logging.FieldImpact, "treating email as new"),
		)
		return false
	}
	return resp.Exists
}

// UpdateExistingData overwrites the lead stored for email.
func (c *Client) UpdateExistingData(ctx context.Context, email string, data form.Data) (Response, error) {
	payload := map[string]any{
		"email":         email,
		"name":          data.Name,
		"favoriteColor": data.FavoriteColor,
		"timestamp":     c.timestamp(),
		"isUpdate":      true,
	}
	resp, err := c.fetchWithRetry(ctx, http.MethodPut, c.cfg.BaseURL+SaveToSheetsPath, payload)
	if err != nil {
		return Response{}, services.Wrap(services.KindSheets, "update existing data", "Failed to update existing data", services.ClassifyAPIError("update existing data", err))
	}
	return resp, nil
}

// BuildRequestURL joins endpoint onto the base URL and appends params in key
// order. Nil values are omitted.
func (c *Client) BuildRequestURL(endpoint string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	query := url.Values{}
	for _, key := range keys {
		query.Add(key, fmt.Sprint(params[key]))
	}
	target := c.cfg.BaseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func (c *Client) fetchWithRetry(ctx context.Context, method, endpoint string, payload any) (Response, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Response{}, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		resp, err := c.doOnce(ctx, method, endpoint, body, requestID)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == c.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}
		delay := c.cfg.RetryDelay * time.Duration(attempt)
		c.logger.DebugContext(ctx, "retrying api request",
			logging.String("method", method),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return Response{}, err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return Response{}, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte, requestID string) (Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return Response{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	var decoded Response
	decodeErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(decoded.Message)
		if decodeErr != nil || message == "" {
			message = "API request failed"
		}
		return Response{}, &StatusError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return Response{}, fmt.Errorf("decode response: %w", decodeErr)
	}
	return decoded, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(timestampLayout)
}
