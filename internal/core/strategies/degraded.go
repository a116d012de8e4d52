package strategies

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"resizer/internal/core"
	"resizer/internal/core/engine"
)

// Intent headers describing the transformation a downstream layer should
// apply to the raw bytes.
const (
	HeaderIntentWidth   = "X-Image-Width"
	HeaderIntentHeight  = "X-Image-Height"
	HeaderIntentFormat  = "X-Image-Format"
	HeaderIntentQuality = "X-Image-Quality"
	HeaderIntentFit     = "X-Image-Fit"
)

// DegradedNative serves restricted default subdomains, where the native
// transform is unavailable. It does not attempt any transformation: it
// returns the raw object annotated with intent headers so a downstream
// layer can act on them.
type DegradedNative struct {
	resolver *engine.Resolver
}

// NewDegradedNative creates the strategy.
func NewDegradedNative(resolver *engine.Resolver) *DegradedNative {
	return &DegradedNative{resolver: resolver}
}

func (s *DegradedNative) Name() string  { return NameDegradedNative }
func (s *DegradedNative) Priority() int { return priorityDegradedNative }

// CanHandle implements core.Strategy.
func (s *DegradedNative) CanHandle(ctx context.Context, req *core.Request) bool {
	if req.Object == nil || req.Options.IsEmpty() {
		return false
	}
	return s.resolver.Classify(req.Host()).IsRestrictedSubdomain
}

// Execute implements core.Strategy.
func (s *DegradedNative) Execute(ctx context.Context, req *core.Request) (*core.Response, error) {
	body, err := req.Object.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	resp := core.NewResponse(http.StatusOK, req.Object.ContentType, body)
	resp.Header.Set(core.HeaderSource, "degraded-native")

	opts := req.Options
	if opts.Width != "" {
		resp.Header.Set(HeaderIntentWidth, opts.Width)
	}
	if opts.Height > 0 {
		resp.Header.Set(HeaderIntentHeight, strconv.Itoa(opts.Height))
	}
	if opts.Format != "" {
		resp.Header.Set(HeaderIntentFormat, opts.Format)
	}
	if opts.Quality > 0 {
		resp.Header.Set(HeaderIntentQuality, strconv.Itoa(opts.Quality))
	}
	if opts.Fit != "" {
		resp.Header.Set(HeaderIntentFit, opts.Fit)
	}
	return resp, nil
}

var _ core.Strategy = (*DegradedNative)(nil)
