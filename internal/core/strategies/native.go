package strategies

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	"resizer/internal/core"
	"resizer/internal/pkg/httpclient"
	"resizer/internal/storage"
)

// NativeTransform invokes the external transform capability against the
// original request URL via a request-scoped option bag.
//
// The capability obtains its source bytes by re-requesting the same URL.
// That sub-fetch arrives here flagged as reentrant; answering it with
// the raw object, resolved from the request path rather than the
// original key, is what breaks the loop.
type NativeTransform struct {
	fetcher  httpclient.Fetcher
	prepared *core.PreparedCache
	store    storage.ObjectStore
	log      *zap.Logger
}

// NewNativeTransform creates the strategy.
func NewNativeTransform(fetcher httpclient.Fetcher, prepared *core.PreparedCache, store storage.ObjectStore, log *zap.Logger) *NativeTransform {
	if log == nil {
		log = zap.NewNop()
	}
	return &NativeTransform{fetcher: fetcher, prepared: prepared, store: store, log: log}
}

func (s *NativeTransform) Name() string  { return NameNativeTransform }
func (s *NativeTransform) Priority() int { return priorityNativeTransform }

// CanHandle implements core.Strategy.
func (s *NativeTransform) CanHandle(ctx context.Context, req *core.Request) bool {
	if req.IsReentrantSubrequest {
		return true
	}
	return req.Object != nil && !req.Options.IsEmpty()
}

// Execute implements core.Strategy.
func (s *NativeTransform) Execute(ctx context.Context, req *core.Request) (*core.Response, error) {
	if req.IsReentrantSubrequest {
		return s.serveSubrequest(ctx, req)
	}

	prep := s.prepared.Get(req.Options)
	resp, err := s.fetcher.Fetch(ctx, http.MethodGet, inboundURL(req), nil, prep.NativeBag)
	if err != nil {
		return nil, fmt.Errorf("native transform fetch failed: %w", err)
	}
	return relay(resp, "native-transform")
}

// serveSubrequest answers the transform capability's source fetch with
// the raw object named by the request path.
func (s *NativeTransform) serveSubrequest(ctx context.Context, req *core.Request) (*core.Response, error) {
	key := KeyFromPath(req.HTTP.URL.Path)
	if key == "" {
		return nil, fmt.Errorf("reentrant subrequest carries no object key in path %q", req.HTTP.URL.Path)
	}

	handle := req.Object
	if handle == nil || handle.Key != key {
		var err error
		handle, err = s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve subrequest object %q: %w", key, err)
		}
	}

	body, err := handle.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read subrequest object %q: %w", key, err)
	}
	s.log.Debug("served reentrant subrequest", zap.String("key", key))
	resp := core.NewResponse(http.StatusOK, handle.ContentType, body)
	resp.Header.Set(core.HeaderSource, "native-subrequest")
	return resp, nil
}

// KeyFromPath resolves the object key embedded in a request path,
// stripping the serving prefix when present.
func KeyFromPath(p string) string {
	clean := path.Clean("/" + p)
	clean = strings.TrimPrefix(clean, "/images")
	return strings.TrimPrefix(clean, "/")
}

var _ core.Strategy = (*NativeTransform)(nil)
