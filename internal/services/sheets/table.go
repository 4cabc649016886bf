package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"leadlens/internal/rowstore"
)

const (
	defaultSheetName = "Sheet1"
	defaultTimeout   = 15 * time.Second
	valueInputRaw    = "RAW"
	insertRows       = "INSERT_ROWS"
)

// Config captures the spreadsheet location and service account credentials.
type Config struct {
	SpreadsheetID       string
	SheetName           string
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsFile     string
	Endpoint            string
	Timeout             time.Duration
}

// Table is a rowstore.Table backed by one sheet of a spreadsheet.
type Table struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
	timeout       time.Duration
}

// Option customizes the table.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient supplies an already authenticated HTTP client and skips
// service account setup (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// New constructs a Table for cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Table, error) {
	cfg.SpreadsheetID = strings.TrimSpace(cfg.SpreadsheetID)
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id required")
	}
	cfg.SheetName = strings.TrimSpace(cfg.SheetName)
	if cfg.SheetName == "" {
		cfg.SheetName = defaultSheetName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := make([]option.ClientOption, 0, 2)
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	} else {
		tokens, err := tokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithTokenSource(tokens))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Table{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         cfg.SheetName,
		timeout:       cfg.Timeout,
	}, nil
}

func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	if cfg.ServiceAccountEmail != "" && cfg.PrivateKey != "" {
		jwtCfg := &jwt.Config{
			Email:      cfg.ServiceAccountEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{gsheets.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		return jwtCfg.TokenSource(ctx), nil
	}
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("sheets: read credentials file: %w", err)
		}
		jwtCfg, err := google.JWTConfigFromJSON(data, gsheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("sheets: parse credentials file: %w", err)
		}
		return jwtCfg.TokenSource(ctx), nil
	}
	return nil, errors.New("sheets: service account credentials required")
}

// Range returns the A1 range covering every lead column.
func (t *Table) Range() string {
	return t.sheet + "!A:D"
}

func (t *Table) rowRange(ref int) string {
	return fmt.Sprintf("%s!A%d:D%d", t.sheet, ref, ref)
}

// Rows implements rowstore.Table. Refs are 1-based sheet row numbers.
func (t *Table) Rows(ctx context.Context) ([]rowstore.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.values.Get(t.spreadsheetID, t.Range()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: get %s: %w", t.Range(), err)
	}
	rows := make([]rowstore.Row, 0, len(resp.Values))
	for i, raw := range resp.Values {
		values := make([]string, 0, len(raw))
		for _, cell := range raw {
			values = append(values, cellString(cell))
		}
		rows = append(rows, rowstore.Row{Ref: i + 1, Values: rowstore.Pad(values)})
	}
	return rows, nil
}

// UpdateRow implements rowstore.Table.
func (t *Table) UpdateRow(ctx context.Context, ref int, values []string) error {
	if ref < 1 {
		return rowstore.ErrRowNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	rng := t.rowRange(ref)
	body := &gsheets.ValueRange{Values: [][]any{toCells(values)}}
	if _, err := t.values.Update(t.spreadsheetID, rng, body).ValueInputOption(valueInputRaw).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: update %s: %w", rng, err)
	}
	return nil
}

// AppendRow implements rowstore.Table.
func (t *Table) AppendRow(ctx context.Context, values []string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	body := &gsheets.ValueRange{Values: [][]any{toCells(values)}}
	if _, err := t.values.Append(t.spreadsheetID, t.Range(), body).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("sheets: append %s: %w", t.Range(), err)
	}
	return nil
}

func toCells(values []string) []any {
	padded := rowstore.Pad(values)
	cells := make([]any, len(padded))
	for i, v := range padded {
		cells[i] = v
	}
	return cells
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

var _ rowstore.Table = (*Table)(nil)
