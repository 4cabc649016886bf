package services_test

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"

	"leadlens/internal/language"
	"leadlens/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.KindSheets, "append", "write failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSheets) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if errors.Is(err, services.ErrAPI) {
		t.Fatalf("did not expect API marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"SHEETS", "append", "write failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
	var appErr *services.Error
	if !errors.As(err, &appErr) || appErr.Timestamp.IsZero() {
		t.Fatalf("expected timestamped *Error, got %#v", err)
	}
}

func TestKindOfSurvivesFmtWrapping(t *testing.T) {
	inner := services.New(services.KindCamera, "permission denied")
	outer := fmt.Errorf("start capture: %w", inner)
	if kind := services.KindOf(outer); kind != services.KindCamera {
		t.Fatalf("expected CAMERA, got %s", kind)
	}
	if kind := services.KindOf(errors.New("plain")); kind != services.KindUnknown {
		t.Fatalf("expected UNKNOWN for plain error, got %s", kind)
	}
	if kind := services.KindOf(nil); kind != "" {
		t.Fatalf("expected empty kind for nil, got %s", kind)
	}
	if kind := services.New("BOGUS", "x").Kind; kind != services.KindUnknown {
		t.Fatalf("expected unknown kinds to normalize, got %s", kind)
	}
}

func TestUserMessageLocalizes(t *testing.T) {
	err := services.Wrap(services.KindSheets, "save", "", nil)
	if got := services.UserMessage(err, language.Portuguese); got != "Não foi possível salvar os dados no Google Sheets." {
		t.Fatalf("unexpected pt message %q", got)
	}
	if got := services.UserMessage(errors.New("x"), language.Spanish); !strings.HasPrefix(got, "Ocurrió un error inesperado") {
		t.Fatalf("unexpected unknown fallback %q", got)
	}
	if got := services.MessageFor(services.KindNetwork, "fr"); !strings.HasPrefix(got, "Network connection error") {
		t.Fatalf("expected English fallback, got %q", got)
	}
}

func TestClassifyAPIError(t *testing.T) {
	netErr := &url.Error{Op: "Post", URL: "http://localhost:1", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}
	if kind := services.KindOf(services.ClassifyAPIError("save", netErr)); kind != services.KindNetwork {
		t.Fatalf("expected NETWORK, got %s", kind)
	}
	if kind := services.KindOf(services.ClassifyAPIError("save", errors.New("HTTP 500"))); kind != services.KindAPI {
		t.Fatalf("expected API, got %s", kind)
	}
	classified := services.Wrap(services.KindSheets, "save", "", nil)
	if got := services.ClassifyAPIError("save", classified); got != classified {
		t.Fatalf("expected classified error to pass through, got %v", got)
	}
	if services.ClassifyAPIError("save", nil) != nil {
		t.Fatal("expected nil for nil input")
	}
}
