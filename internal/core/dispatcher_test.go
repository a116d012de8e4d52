package core

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"

	"resizer/internal/core/engine"
	"resizer/internal/storage"
)

type countingStore struct {
	inner storage.ObjectStore
	keys  []string
}

func (s *countingStore) Get(ctx context.Context, key string) (*storage.ObjectHandle, error) {
	s.keys = append(s.keys, key)
	return s.inner.Get(ctx, key)
}

type errorStore struct {
	err error
}

func (s errorStore) Get(ctx context.Context, key string) (*storage.ObjectHandle, error) {
	return nil, s.err
}

func newTestDispatcher(t *testing.T, store storage.ObjectStore, diag DiagnosticsConfig, strategies ...Strategy) *Dispatcher {
	t.Helper()
	resolver, err := engine.NewResolver(engine.Config{})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	reg := NewRegistry()
	for _, s := range strategies {
		reg.Register(s)
	}
	headers := NewHeaderCache(CacheConfig{Enabled: false}, nil)
	return NewDispatcher(store, resolver, reg, headers, HeaderSink{}, diag, zaptest.NewLogger(t))
}

func TestProcessMissingObject(t *testing.T) {
	store := &countingStore{inner: storage.NewMemoryStore()}
	d := newTestDispatcher(t, store, DiagnosticsConfig{})

	req := testRequest("images.example.com")
	req.Key = "missing.jpg"

	resp, err := d.Process(context.Background(), req)
	if resp.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Status)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) || notFound.Key != "missing.jpg" {
		t.Errorf("expected NotFoundError for missing.jpg, got %v", err)
	}
	if got := resp.Header.Get(HeaderStrategyAttempts); got != "none" {
		t.Errorf("attempts header = %q, want none", got)
	}
	if len(store.keys) != 1 || store.keys[0] != "missing.jpg" {
		t.Errorf("store.Get calls = %v, want exactly one for missing.jpg", store.keys)
	}
}

func TestProcessFetchFailure(t *testing.T) {
	d := newTestDispatcher(t, errorStore{err: errors.New("connection reset")}, DiagnosticsConfig{})

	resp, err := d.Process(context.Background(), testRequest("images.example.com"))
	if resp.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.Status)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestProcessFirstSuccessStops(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("photo.jpg", "image/jpeg", []byte("original-bytes"))

	failing := &fakeStrategy{name: "flaky", priority: 0, execute: failWith("network error")}
	winning := &fakeStrategy{name: "steady", priority: 1, execute: succeedWith(200, "smaller")}
	never := &fakeStrategy{name: "spare", priority: 2, execute: succeedWith(200, "unused")}

	d := newTestDispatcher(t, store, DiagnosticsConfig{Enabled: true}, failing, winning, never)

	req := testRequest("images.example.com")
	req.Options = Options{Width: "800", Format: "webp"}

	resp, err := d.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if string(resp.Body) != "smaller" {
		t.Errorf("body = %q, want the winning strategy's body", resp.Body)
	}
	if never.calls != 0 {
		t.Error("chain did not stop at the first success")
	}

	if got := resp.Header.Get(HeaderDebugSelected); got != "steady" {
		t.Errorf("selected = %q, want steady", got)
	}
	failures := resp.Header.Get(HeaderDebugFailures)
	if got := gjson.Get(failures, "flaky").String(); got != "network error" {
		t.Errorf("failures[flaky] = %q, want the recorded message (payload %s)", got, failures)
	}
	if gjson.Parse(failures).Get("steady").Exists() {
		t.Errorf("selected strategy must not appear in failures: %s", failures)
	}
}

func TestProcessAllFailedServesOriginal(t *testing.T) {
	original := []byte("original-bytes")
	store := storage.NewMemoryStore()
	store.Put("photo.jpg", "image/jpeg", original)

	a := &fakeStrategy{name: "first", priority: 0, execute: failWith("boom")}
	b := &fakeStrategy{name: "second", priority: 1, execute: failWith("bust")}

	d := newTestDispatcher(t, store, DiagnosticsConfig{}, a, b)

	req := testRequest("images.example.com")
	req.Options = Options{Width: "800"}

	resp, err := d.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("transform failure must not surface as an error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if !bytes.Equal(resp.Body, original) {
		t.Error("body must be byte-identical to the original object")
	}
	if got := resp.Header.Get(HeaderTransformFailed); got != "true" {
		t.Errorf("transform-failed marker = %q, want true", got)
	}
	if got := resp.Header.Get(HeaderStrategyAttempts); got != "first,second" {
		t.Errorf("attempts header = %q, want first,second", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", got)
	}
}

func TestProcessNoEligibleCandidates(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("photo.jpg", "image/jpeg", []byte("original-bytes"))

	skip := &fakeStrategy{name: "picky", priority: 0, handles: func(*Request) bool { return false }}
	d := newTestDispatcher(t, store, DiagnosticsConfig{}, skip)

	req := testRequest("images.example.com")
	req.Options = Options{Width: "800"}

	resp, err := d.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if got := resp.Header.Get(HeaderStrategyAttempts); got != "none" {
		t.Errorf("attempts header = %q, want none", got)
	}
}

func TestProcessNon2xxCountsAsFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("photo.jpg", "image/jpeg", []byte("original-bytes"))

	bad := &fakeStrategy{name: "teapot", priority: 0, execute: succeedWith(418, "short and stout")}
	d := newTestDispatcher(t, store, DiagnosticsConfig{}, bad)

	req := testRequest("images.example.com")
	req.Options = Options{Width: "800"}

	resp, _ := d.Process(context.Background(), req)
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want degraded 200", resp.Status)
	}
	if got := resp.Header.Get(HeaderTransformFailed); got != "true" {
		t.Error("non-2xx strategy outcome must degrade, not relay")
	}
}

func TestProcessPanicIsAbsorbed(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("photo.jpg", "image/jpeg", []byte("original-bytes"))

	panicky := &fakeStrategy{name: "panicky", priority: 0, execute: func(context.Context, *Request) (*Response, error) {
		panic("unexpected state")
	}}
	winning := &fakeStrategy{name: "steady", priority: 1, execute: succeedWith(200, "ok")}

	d := newTestDispatcher(t, store, DiagnosticsConfig{}, panicky, winning)

	req := testRequest("images.example.com")
	req.Options = Options{Width: "800"}

	resp, err := d.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("body = %q, want the next strategy's body", resp.Body)
	}
}

func TestDiagnosticsGating(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put("photo.jpg", "image/jpeg", []byte("original-bytes"))

	win := &fakeStrategy{name: "steady", priority: 0, execute: succeedWith(200, "ok")}

	t.Run("disabled", func(t *testing.T) {
		d := newTestDispatcher(t, store, DiagnosticsConfig{}, win)
		req := testRequest("images.example.com")
		req.Options = Options{Width: "800"}
		resp, _ := d.Process(context.Background(), req)
		if resp.Header.Get(HeaderDebugSelected) != "" {
			t.Error("diagnostics headers present while disabled")
		}
	})

	t.Run("header opt-in", func(t *testing.T) {
		d := newTestDispatcher(t, store, DiagnosticsConfig{AllowHeader: true}, win)
		req := testRequest("images.example.com")
		req.Options = Options{Width: "800"}
		req.HTTP.Header.Set("X-Debug", "true")
		resp, _ := d.Process(context.Background(), req)
		if got := resp.Header.Get(HeaderDebugSelected); got != "steady" {
			t.Errorf("selected = %q, want steady", got)
		}
		if got := resp.Header.Get(HeaderDebugDomain); got != "custom" {
			t.Errorf("domain type = %q, want custom", got)
		}
	})
}
