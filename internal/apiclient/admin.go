package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// HealthPath reports server and backend status.
	HealthPath = "/api/health"
	// LeadsPath lists stored leads for operators.
	LeadsPath = "/api/leads"
)

// Health is the /api/health payload.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LeadRecord is one lead row as returned by the admin listing.
type LeadRecord struct {
	Timestamp     string `json:"timestamp"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	FavoriteColor string `json:"favoriteColor"`
}

type leadListing struct {
	Leads []LeadRecord `json:"leads"`
	Count int          `json:"count"`
}

// Health fetches server health once. A degraded server answers 503 with a
// body; that body is returned alongside a StatusError.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	err := c.getJSON(ctx, c.cfg.BaseURL+HealthPath, "", &health)
	return health, err
}

// ListLeads fetches every stored lead using the admin bearer token.
func (c *Client) ListLeads(ctx context.Context, token string) ([]LeadRecord, error) {
	var listing leadListing
	if err := c.getJSON(ctx, c.cfg.BaseURL+LeadsPath, token, &listing); err != nil {
		return nil, err
	}
	return listing.Leads, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	decodeErr := json.Unmarshal(raw, out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope Response
		_ = json.Unmarshal(raw, &envelope)
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
