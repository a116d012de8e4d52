package strategies

import (
	"context"
	"fmt"
	"net/http"

	"resizer/internal/core"
)

// DirectServing streams the stored object unchanged. It only applies
// when no transform parameter was requested, so it performs no outbound
// call at all.
type DirectServing struct{}

// NewDirectServing creates the strategy.
func NewDirectServing() *DirectServing {
	return &DirectServing{}
}

func (s *DirectServing) Name() string  { return NameDirectServing }
func (s *DirectServing) Priority() int { return priorityDirectServing }

// CanHandle implements core.Strategy.
func (s *DirectServing) CanHandle(ctx context.Context, req *core.Request) bool {
	return req.Object != nil && req.Options.IsEmpty()
}

// Execute implements core.Strategy.
func (s *DirectServing) Execute(ctx context.Context, req *core.Request) (*core.Response, error) {
	body, err := req.Object.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	resp := core.NewResponse(http.StatusOK, req.Object.ContentType, body)
	resp.Header.Set(core.HeaderSource, "direct")
	return resp, nil
}

var _ core.Strategy = (*DirectServing)(nil)
