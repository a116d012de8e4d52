package strategies

import (
	"context"
	"fmt"
	"net/http"

	"resizer/internal/core"
	"resizer/internal/pkg/httpclient"
)

// forwardedHeaders is the fixed allow-list of inbound headers copied to
// the fallback origin.
var forwardedHeaders = []string{
	"Accept",
	"Accept-Encoding",
	"Accept-Language",
	"User-Agent",
	"Viewport-Width",
	"DPR",
	"Width",
}

// RemoteFallback fetches a query-parameter-encoded URL against the
// fallback origin, which performs the transform itself.
type RemoteFallback struct {
	fetcher  httpclient.Fetcher
	prepared *core.PreparedCache
}

// NewRemoteFallback creates the strategy.
func NewRemoteFallback(fetcher httpclient.Fetcher, prepared *core.PreparedCache) *RemoteFallback {
	return &RemoteFallback{fetcher: fetcher, prepared: prepared}
}

func (s *RemoteFallback) Name() string  { return NameRemoteFallback }
func (s *RemoteFallback) Priority() int { return priorityRemoteFallback }

// CanHandle implements core.Strategy.
func (s *RemoteFallback) CanHandle(ctx context.Context, req *core.Request) bool {
	return req.FallbackURL != "" && !req.Options.IsEmpty()
}

// Execute implements core.Strategy.
func (s *RemoteFallback) Execute(ctx context.Context, req *core.Request) (*core.Response, error) {
	prep := s.prepared.Get(req.Options)
	target := joinURL(req.FallbackURL, req.Key)
	if prep.QueryParams != "" {
		target += "?" + prep.QueryParams
	}

	header := make(http.Header)
	if req.HTTP != nil {
		for _, name := range forwardedHeaders {
			if value := req.HTTP.Header.Get(name); value != "" {
				header.Set(name, value)
			}
		}
	}

	resp, err := s.fetcher.Fetch(ctx, http.MethodGet, target, header, nil)
	if err != nil {
		return nil, fmt.Errorf("remote fallback fetch failed: %w", err)
	}
	return relay(resp, "remote-fallback")
}

var _ core.Strategy = (*RemoteFallback)(nil)
