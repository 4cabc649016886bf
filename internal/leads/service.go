package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadlens/internal/leadlock"
	"leadlens/internal/logging"
	"leadlens/internal/notifications"
	"leadlens/internal/rowstore"
	"leadlens/internal/services"
)

// TimestampLayout matches JavaScript's Date.toISOString output.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	colTimestamp = iota
	colName
	colEmail
	colFavoriteColor
)

// ErrNotFound indicates Update was called for an email with no row.
var ErrNotFound = errors.New("lead not found")

// Action reports what Upsert did.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Lead is one decoded store row.
type Lead struct {
	Timestamp     string `json:"timestamp"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	FavoriteColor string `json:"favoriteColor,omitempty"`
}

// Submission is the already sanitized input for a write.
type Submission struct {
	Name          string
	Email         string
	FavoriteColor string
}

// Result describes a completed write. Row is the store reference of the
// written row, or zero for appends where the backend does not report one.
type Result struct {
	Action Action
	Row    int
	Lead   Lead
}

// Service performs lead reads and writes against a table.
type Service struct {
	table    rowstore.Table
	locker   leadlock.Locker
	logger   *slog.Logger
	notifier notifications.Service
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier publishes a notification after each successful write and on
// store failures.
func WithNotifier(notifier notifications.Service) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a lead service. A nil locker falls back to an in-process
// lock table.
func NewService(table rowstore.Table, locker leadlock.Locker, logger *slog.Logger, opts ...Option) *Service {
	if locker == nil {
		locker = leadlock.NewLocal()
	}
	s := &Service{
		table:    table,
		locker:   locker,
		logger:   logging.NewComponentLogger(logger, "leads"),
		notifier: notifications.NewService(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert overwrites the row owned by sub.Email or appends a new one.
func (s *Service) Upsert(ctx context.Context, sub Submission) (Result, error) {
	return s.write(ctx, "upsert", sub, true)
}

// Update overwrites the row owned by sub.Email and returns ErrNotFound when no
// such row exists.
func (s *Service) Update(ctx context.Context, sub Submission) (Result, error) {
	return s.write(ctx, "update", sub, false)
}

func (s *Service) write(ctx context.Context, operation string, sub Submission, allowAppend bool) (Result, error) {
	if strings.TrimSpace(sub.Email) == "" {
		return Result{}, services.Wrap(services.KindFormValidation, operation, "email is required", nil)
	}

	release, err := s.locker.Lock(ctx, sub.Email)
	if err != nil {
		return Result{}, services.Wrap(services.KindSheets, operation, "acquire lead lock", err)
	}
	defer release()

	rows, err := s.table.Rows(ctx)
	if err != nil {
		return Result{}, s.storeFailure(ctx, operation, "read rows", err)
	}

	lead := Lead{
		Timestamp:     s.now().UTC().Format(TimestampLayout),
		Name:          sub.Name,
		Email:         sub.Email,
		FavoriteColor: sub.FavoriteColor,
	}
	values := encode(lead)

	result := Result{Lead: lead}
	if ref, ok := findRow(rows, sub.Email); ok {
		if err := s.table.UpdateRow(ctx, ref, values); err != nil {
			return Result{}, s.storeFailure(ctx, operation, "update row", err)
		}
		result.Action = ActionUpdated
		result.Row = ref
	} else {
		if !allowAppend {
			return Result{}, ErrNotFound
		}
		if err := s.table.AppendRow(ctx, values); err != nil {
			return Result{}, s.storeFailure(ctx, operation, "append row", err)
		}
		result.Action = ActionCreated
	}

	s.logger.InfoContext(ctx, "lead stored",
		logging.String(logging.FieldEventType, "lead_"+string(result.Action)),
		logging.Email(sub.Email),
		logging.Int("row", result.Row),
	)
	if err := s.notifier.NotifyLeadCaptured(ctx, lead.Name, lead.Email, result.Action == ActionUpdated); err != nil {
		logging.WarnWithContext(ctx, s.logger, "lead notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "lead was stored but no push was sent"),
		)
	}
	return result, nil
}

// Exists reports whether email owns a row.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return false, s.storeFailure(ctx, "exists", "read rows", err)
	}
	_, ok := findRow(rows, email)
	return ok, nil
}

// List decodes every row in storage order, skipping a header row.
func (s *Service) List(ctx context.Context) ([]Lead, error) {
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return nil, s.storeFailure(ctx, "list", "read rows", err)
	}
	leads := make([]Lead, 0, len(rows))
	for i, row := range rows {
		values := rowstore.Pad(row.Values)
		if i == 0 && isHeader(values) {
			continue
		}
		leads = append(leads, decode(values))
	}
	return leads, nil
}

func (s *Service) storeFailure(ctx context.Context, operation, step string, err error) error {
	wrapped := services.Wrap(services.KindSheets, operation, step, err)
	logging.ErrorWithContext(ctx, s.logger, "lead store failed", "store_failed",
		logging.String("operation", operation),
		logging.String(logging.FieldErrorKind, string(services.KindSheets)),
		logging.String(logging.FieldErrorHint, "check store credentials and connectivity"),
		logging.Error(err),
	)
	if notifyErr := s.notifier.NotifyStoreFailure(ctx, fmt.Sprintf("%s (%s)", operation, step), err); notifyErr != nil {
		s.logger.DebugContext(ctx, "store failure notification failed", logging.Error(notifyErr))
	}
	return wrapped
}

// findRow returns the ref of the first row whose email column equals email.
func findRow(rows []rowstore.Row, email string) (int, bool) {
	for _, row := range rows {
		if len(row.Values) > colEmail && row.Values[colEmail] == email {
			return row.Ref, true
		}
	}
	return 0, false
}

func isHeader(values []string) bool {
	return strings.EqualFold(strings.TrimSpace(values[colEmail]), "email")
}

func encode(lead Lead) []string {
	values := make([]string, rowstore.Columns)
	values[colTimestamp] = lead.Timestamp
	values[colName] = lead.Name
	values[colEmail] = lead.Email
	values[colFavoriteColor] = lead.FavoriteColor
	return values
}

func decode(values []string) Lead {
	return Lead{
		Timestamp:     values[colTimestamp],
		Name:          values[colName],
		Email:         values[colEmail],
		FavoriteColor: values[colFavoriteColor],
	}
}
