package strategies

import (
	"context"
	"fmt"
	"net/http"

	"resizer/internal/core"
	"resizer/internal/pkg/httpclient"
)

// gatewayPrefix is the path convention embedding encoded parameters
// ahead of the object key on the fallback origin.
const gatewayPrefix = "cdn-cgi/image"

// GatewayURL fetches the transformed image through the fallback origin's
// gateway path, e.g. {origin}/cdn-cgi/image/format=webp,width=800/photo.jpg.
type GatewayURL struct {
	fetcher  httpclient.Fetcher
	prepared *core.PreparedCache
}

// NewGatewayURL creates the strategy.
func NewGatewayURL(fetcher httpclient.Fetcher, prepared *core.PreparedCache) *GatewayURL {
	return &GatewayURL{fetcher: fetcher, prepared: prepared}
}

func (s *GatewayURL) Name() string  { return NameGatewayURL }
func (s *GatewayURL) Priority() int { return priorityGatewayURL }

// CanHandle implements core.Strategy.
func (s *GatewayURL) CanHandle(ctx context.Context, req *core.Request) bool {
	if req.FallbackURL == "" || req.Options.IsEmpty() {
		return false
	}
	return req.Object != nil || req.Bucket != ""
}

// Execute implements core.Strategy.
func (s *GatewayURL) Execute(ctx context.Context, req *core.Request) (*core.Response, error) {
	prep := s.prepared.Get(req.Options)
	target := joinURL(req.FallbackURL, gatewayPrefix, prep.PathSegment, req.Key)

	resp, err := s.fetcher.Fetch(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway url fetch failed: %w", err)
	}
	return relay(resp, "gateway-url")
}

var _ core.Strategy = (*GatewayURL)(nil)
