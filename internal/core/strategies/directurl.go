package strategies

import (
	"context"
	"fmt"
	"net/http"

	"resizer/internal/core"
	"resizer/internal/pkg/httpclient"
)

// DirectURLNative invokes the external transform capability through an
// explicit outbound request against the object's direct URL on the
// fallback origin. It covers domains whose inbound URL cannot be used
// for the native transform directly.
type DirectURLNative struct {
	fetcher  httpclient.Fetcher
	prepared *core.PreparedCache
}

// NewDirectURLNative creates the strategy.
func NewDirectURLNative(fetcher httpclient.Fetcher, prepared *core.PreparedCache) *DirectURLNative {
	return &DirectURLNative{fetcher: fetcher, prepared: prepared}
}

func (s *DirectURLNative) Name() string  { return NameDirectURLNative }
func (s *DirectURLNative) Priority() int { return priorityDirectURLNative }

// CanHandle implements core.Strategy.
func (s *DirectURLNative) CanHandle(ctx context.Context, req *core.Request) bool {
	if req.Options.IsEmpty() {
		return false
	}
	return req.Object != nil || req.FallbackURL != ""
}

// Execute implements core.Strategy.
func (s *DirectURLNative) Execute(ctx context.Context, req *core.Request) (*core.Response, error) {
	if req.FallbackURL == "" {
		return nil, fmt.Errorf("no fallback origin configured for direct url transform")
	}

	prep := s.prepared.Get(req.Options)
	target := joinURL(req.FallbackURL, req.Key)
	resp, err := s.fetcher.Fetch(ctx, http.MethodGet, target, nil, prep.NativeBag)
	if err != nil {
		return nil, fmt.Errorf("direct url transform fetch failed: %w", err)
	}
	return relay(resp, "direct-url-native")
}

var _ core.Strategy = (*DirectURLNative)(nil)
