package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadlens/internal/config"
	"leadlens/internal/logging"
)

const (
	userAgent      = "leadlens/1.0"
	defaultNtfyURL = "https://ntfy.sh/"
)

// Service defines the notification surface exposed to the lead backend.
type Service interface {
	NotifyLeadCaptured(ctx context.Context, name, email string, updated bool) error
	NotifyStoreFailure(ctx context.Context, operation string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	endpoint := topicEndpoint(cfg.Notifications.NtfyTopic)
	if endpoint == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      endpoint,
		client:        &http.Client{Timeout: timeout},
		leadCaptured:  cfg.Notifications.LeadCaptured,
		storeFailures: cfg.Notifications.StoreFailures,
	}
}

// topicEndpoint accepts a full ntfy URL or a bare topic name on ntfy.sh.
func topicEndpoint(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return defaultNtfyURL + strings.TrimPrefix(topic, "/")
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	leadCaptured  bool
	storeFailures bool
}

func (n *ntfyService) NotifyLeadCaptured(ctx context.Context, name, email string, updated bool) error {
	if !n.leadCaptured {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown"
	}
	data := payload{
		title:   "leadlens - New Lead",
		message: fmt.Sprintf("New lead: %s <%s>", name, logging.MaskEmail(email)),
		tags:    []string{"leadlens", "lead", "created"},
	}
	if updated {
		data.title = "leadlens - Lead Updated"
		data.message = fmt.Sprintf("Returning lead: %s <%s>", name, logging.MaskEmail(email))
		data.tags = []string{"leadlens", "lead", "updated"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStoreFailure(ctx context.Context, operation string, err error) error {
	if !n.storeFailures {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Lead store failure")
	if operation = strings.TrimSpace(operation); operation != "" {
		builder.WriteString(" during ")
		builder.WriteString(operation)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "leadlens - Store Error",
		message:  builder.String(),
		tags:     []string{"leadlens", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "leadlens - Test",
		message:  "Notification system test",
		tags:     []string{"leadlens", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyLeadCaptured(context.Context, string, string, bool) error { return nil }
func (noopService) NotifyStoreFailure(context.Context, string, error) error        { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
