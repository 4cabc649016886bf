package services

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"leadlens/internal/language"
)

// Kind classifies a failure for user-facing messaging.
type Kind string

// Error kinds.
const (
	KindFormValidation Kind = "FORM_VALIDATION"
	KindAPI            Kind = "API"
	KindCamera         Kind = "CAMERA"
	KindSheets         Kind = "SHEETS"
	KindNetwork        Kind = "NETWORK"
	KindUnknown        Kind = "UNKNOWN"
)

// Markers usable with errors.Is against any *Error of the matching kind.
var (
	ErrFormValidation = errors.New("form validation error")
	ErrAPI            = errors.New("api error")
	ErrCamera         = errors.New("camera error")
	ErrSheets         = errors.New("sheets error")
	ErrNetwork        = errors.New("network error")
	ErrUnknown        = errors.New("unknown error")
)

var markers = map[Kind]error{
	KindFormValidation: ErrFormValidation,
	KindAPI:            ErrAPI,
	KindCamera:         ErrCamera,
	KindSheets:         ErrSheets,
	KindNetwork:        ErrNetwork,
	KindUnknown:        ErrUnknown,
}

var now = time.Now

// Error is a classified application error. Message is a short developer
// facing description; use UserMessage for text shown to visitors.
type Error struct {
	Kind      Kind
	Operation string
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *Error) Error() string {
	detail := buildDetail(string(e.Kind), e.Operation, e.Message)
	if e.Err != nil {
		return detail + ": " + e.Err.Error()
	}
	return detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the marker for this error's kind.
func (e *Error) Is(target error) bool {
	marker, ok := markers[e.Kind]
	return ok && target == marker
}

// New builds a classified error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: normalizeKind(kind), Message: message, Timestamp: now().UTC()}
}

// Wrap tags err with kind and operation context. A nil err still yields an
// error so callers can report classified failures without a cause.
func Wrap(kind Kind, operation, message string, err error) error {
	return &Error{
		Kind:      normalizeKind(kind),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
		Timestamp: now().UTC(),
	}
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Unclassified errors report KindUnknown; nil reports an empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// UserMessage maps any error to the localized generic message for its kind.
func UserMessage(err error, lang language.Lang) string {
	kind := KindOf(err)
	if kind == "" {
		kind = KindUnknown
	}
	return MessageFor(kind, lang)
}

// ClassifyAPIError tags a transport-level failure as NETWORK and anything else
// as API. Already classified errors are returned unchanged.
func ClassifyAPIError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if IsNetworkError(err) {
		return Wrap(KindNetwork, operation, "network request failed", err)
	}
	return Wrap(KindAPI, operation, "request failed", err)
}

// IsNetworkError reports whether err came from the transport rather than an
// HTTP response.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

func normalizeKind(kind Kind) Kind {
	if _, ok := markers[kind]; ok {
		return kind
	}
	return KindUnknown
}

func buildDetail(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}

// Errorf is a convenience for Wrap with a formatted message and no cause.
func Errorf(kind Kind, operation, format string, args ...any) error {
	return Wrap(kind, operation, fmt.Sprintf(format, args...), nil)
}
