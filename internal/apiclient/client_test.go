package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"leadlens/internal/form"
	"leadlens/internal/services"
)

type recorder struct {
	mu     sync.Mutex
	calls  int
	ids    []string
	bodies []map[string]any
}

func (r *recorder) record(req *http.Request) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.ids = append(r.ids, req.Header.Get("X-Request-ID"))
	if req.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err == nil {
			r.bodies = append(r.bodies, body)
		}
	}
	return r.calls
}

func newTestClient(baseURL string, sleeps *[]time.Duration) *Client {
	return New(Config{BaseURL: baseURL, RetryDelay: time.Second}, WithSleeper(func(d time.Duration) {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
	}))
}

func TestSaveFormDataRetriesUntilSuccess(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != SaveToSheetsPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing json headers: %v", r.Header)
		}
		if rec.record(r) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"message":"busy"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := newTestClient(server.URL, &sleeps)
	resp, err := client.SaveFormData(context.Background(), form.Data{Name: "Jane", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("SaveFormData returned error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success response, got %+v", resp)
	}
	if rec.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", rec.calls)
	}
	if len(sleeps) != 1 || sleeps[0] != time.Second {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
	if rec.ids[0] == "" || rec.ids[0] != rec.ids[1] {
		t.Fatalf("expected stable request id across retries, got %v", rec.ids)
	}
	if rec.bodies[1]["email"] != "jane@example.com" || rec.bodies[1]["timestamp"] == "" {
		t.Fatalf("unexpected body %v", rec.bodies[1])
	}
}

func TestSaveFormDataSurfacesFinalNetworkError(t *testing.T) {
	var calls int
	transport := roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	var sleeps []time.Duration
	client := New(Config{BaseURL: "http://leadlens.invalid", RetryDelay: time.Second},
		WithHTTPClient(&http.Client{Transport: transport}),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)

	_, err := client.SaveFormData(context.Background(), form.Data{Name: "Jane", Email: "jane@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("expected linear backoff, got %v", sleeps)
	}
	if services.KindOf(err) != services.KindSheets || !errors.Is(err, services.ErrNetwork) {
		t.Fatalf("expected SHEETS wrapping NETWORK, got %v", err)
	}
	if !strings.Contains(err.Error(), "Failed to save form data") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestStatusErrorUsesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Failed to save data"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	_, err := client.UpdateExistingData(context.Background(), "jane@example.com", form.Data{Name: "Jane"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "Failed to save data" || statusErr.StatusCode != 500 {
		t.Fatalf("expected status error with server message, got %v", err)
	}
	if !errors.Is(err, services.ErrAPI) || !strings.Contains(err.Error(), "Failed to update existing data") {
		t.Fatalf("expected SHEETS wrapping API, got %v", err)
	}
}

func TestStatusErrorDefaultsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, MaxAttempts: 1})
	_, err := client.doOnce(context.Background(), http.MethodGet, server.URL, nil, "rid")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "API request failed" {
		t.Fatalf("expected default message, got %v", err)
	}
}

func TestUpdateExistingDataSendsIsUpdate(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		rec.record(r)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	if _, err := client.UpdateExistingData(context.Background(), "jane@example.com", form.Data{Name: "Jane", FavoriteColor: "blue"}); err != nil {
		t.Fatalf("UpdateExistingData returned error: %v", err)
	}
	body := rec.bodies[0]
	if body["isUpdate"] != true || body["email"] != "jane@example.com" || body["favoriteColor"] != "blue" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCheckEmailExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") == "jane@example.com" {
			_, _ = w.Write([]byte(`{"exists":true}`))
			return
		}
		if r.URL.Query().Get("email") == "broken@example.com" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"exists":false}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)
	ctx := context.Background()
	if !client.CheckEmailExists(ctx, "jane@example.com") {
		t.Fatal("expected jane to exist")
	}
	if client.CheckEmailExists(ctx, "bob@example.com") {
		t.Fatal("expected bob to be unknown")
	}
	if client.CheckEmailExists(ctx, "broken@example.com") {
		t.Fatal("expected failures to report false")
	}
}

func TestBuildRequestURL(t *testing.T) {
	client := New(Config{BaseURL: "http://localhost:8016/"})
	got := client.BuildRequestURL("/api/saveToSheets", map[string]any{"email": "a@b.com", "page": nil, "limit": 5})
	if strings.Contains(got, "page") {
		t.Fatalf("nil param should be omitted: %s", got)
	}
	want := "http://localhost:8016/api/saveToSheets?email=a%40b.com&limit=5"
	if got != want {
		t.Fatalf("BuildRequestURL = %q, want %q", got, want)
	}
	if bare := client.BuildRequestURL("/api/health", nil); bare != "http://localhost:8016/api/health" {
		t.Fatalf("unexpected bare url %q", bare)
	}
}

func TestRetryWaitHonorsCancellation(t *testing.T) {
	transport := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection reset")
	})
	client := New(Config{BaseURL: "http://leadlens.invalid", RetryDelay: time.Hour},
		WithHTTPClient(&http.Client{Transport: transport}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := client.fetchWithRetry(ctx, http.MethodGet, "http://leadlens.invalid", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("retry wait ignored cancellation")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
