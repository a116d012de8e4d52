package core

import "context"

// Strategy is one self-contained technique for producing a transformed
// response. Implementations are registered once at startup and must be
// safe for concurrent use.
type Strategy interface {
	// Name returns the unique strategy identifier.
	Name() string
	// Priority orders strategies when no configured order applies;
	// lower is tried first.
	Priority() int
	// CanHandle reports whether the strategy can serve this request.
	// It must be cheap and side-effect free.
	CanHandle(ctx context.Context, req *Request) bool
	// Execute produces the response. It performs at most one outbound
	// call and never falls back to another strategy itself; any error
	// or non-2xx outcome is the dispatcher's to absorb.
	Execute(ctx context.Context, req *Request) (*Response, error)
}
