package core

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"resizer/internal/core/engine"
)

// fakeStrategy is a configurable Strategy for registry and dispatcher
// tests.
type fakeStrategy struct {
	name     string
	priority int
	handles  func(*Request) bool
	execute  func(context.Context, *Request) (*Response, error)
	calls    int
}

func (s *fakeStrategy) Name() string  { return s.name }
func (s *fakeStrategy) Priority() int { return s.priority }

func (s *fakeStrategy) CanHandle(ctx context.Context, req *Request) bool {
	if s.handles == nil {
		return true
	}
	return s.handles(req)
}

func (s *fakeStrategy) Execute(ctx context.Context, req *Request) (*Response, error) {
	s.calls++
	if s.execute == nil {
		return nil, errors.New("not implemented")
	}
	return s.execute(ctx, req)
}

func succeedWith(status int, body string) func(context.Context, *Request) (*Response, error) {
	return func(ctx context.Context, req *Request) (*Response, error) {
		return NewResponse(status, "image/webp", []byte(body)), nil
	}
}

func failWith(msg string) func(context.Context, *Request) (*Response, error) {
	return func(ctx context.Context, req *Request) (*Response, error) {
		return nil, errors.New(msg)
	}
}

func names(strategies []Strategy) []string {
	out := make([]string, len(strategies))
	for i, s := range strategies {
		out[i] = s.Name()
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testRequest(host string) *Request {
	httpReq, _ := http.NewRequest(http.MethodGet, "http://"+host+"/images/photo.jpg", nil)
	httpReq.URL.Host = host
	return &Request{Key: "photo.jpg", HTTP: httpReq}
}

func TestRegistryRegisterReplacesByName(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStrategy{name: "alpha", priority: 1})
	reg.Register(&fakeStrategy{name: "alpha", priority: 9})
	reg.Register(&fakeStrategy{name: "beta", priority: 2})

	got := names(reg.ResolveOrder(&engine.RoutePolicy{}))
	want := []string{"beta", "alpha"}
	if !equalNames(got, want) {
		t.Errorf("ResolveOrder() = %v, want %v (replacement should keep the new priority)", got, want)
	}
}

func TestResolveOrderPolicyOverrideWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStrategy{name: "alpha", priority: 1})
	reg.Register(&fakeStrategy{name: "beta", priority: 2})
	reg.Register(&fakeStrategy{name: "gamma", priority: 3})

	policy := &engine.RoutePolicy{PriorityOrder: []string{"gamma", "alpha"}}
	got := names(reg.ResolveOrder(policy))
	want := []string{"gamma", "alpha", "beta"}
	if !equalNames(got, want) {
		t.Errorf("ResolveOrder() = %v, want %v", got, want)
	}
}

func TestResolveOrderFallsBackToPriority(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStrategy{name: "slow", priority: 30})
	reg.Register(&fakeStrategy{name: "fast", priority: 10})
	reg.Register(&fakeStrategy{name: "mid", priority: 20})

	got := names(reg.ResolveOrder(&engine.RoutePolicy{}))
	want := []string{"fast", "mid", "slow"}
	if !equalNames(got, want) {
		t.Errorf("ResolveOrder() = %v, want %v", got, want)
	}
}

func TestFindEligibleFilters(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStrategy{name: "alpha", priority: 1})
	reg.Register(&fakeStrategy{name: "beta", priority: 2, handles: func(*Request) bool { return false }})
	reg.Register(&fakeStrategy{name: "gamma", priority: 3})

	req := testRequest("images.example.com")

	policy := &engine.RoutePolicy{Disabled: []string{"gamma"}}
	got := names(reg.FindEligible(context.Background(), req, policy))
	if !equalNames(got, []string{"alpha"}) {
		t.Errorf("FindEligible() = %v, want [alpha]", got)
	}
}

func TestFindEligibleAllowList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStrategy{name: "alpha", priority: 1})
	reg.Register(&fakeStrategy{name: "beta", priority: 2})

	req := testRequest("images.example.com")

	policy := &engine.RoutePolicy{Enabled: []string{"beta"}}
	got := names(reg.FindEligible(context.Background(), req, policy))
	if !equalNames(got, []string{"beta"}) {
		t.Errorf("FindEligible() = %v, want [beta]", got)
	}
}

func TestFindEligibleEmptyIsValid(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStrategy{name: "alpha", priority: 1, handles: func(*Request) bool { return false }})

	req := testRequest("images.example.com")
	got := reg.FindEligible(context.Background(), req, &engine.RoutePolicy{})
	if len(got) != 0 {
		t.Errorf("FindEligible() = %v, want empty", names(got))
	}
}
