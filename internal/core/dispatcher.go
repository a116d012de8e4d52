package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resizer/internal/core/engine"
	"resizer/internal/pkg/metrics"
	"resizer/internal/storage"
)

// DiagnosticsConfig controls when responses are decorated with
// diagnostics headers.
type DiagnosticsConfig struct {
	// Enabled is the global switch.
	Enabled bool `mapstructure:"enabled"`
	// Environments restricts decoration to the listed environment tags
	// when non-empty.
	Environments []string `mapstructure:"environments"`
	// AllowHeader additionally honors an `X-Debug: true` request header.
	AllowHeader bool `mapstructure:"allow_header"`
}

func (c DiagnosticsConfig) enabledFor(environment string, r *http.Request) bool {
	if c.AllowHeader && r != nil && r.Header.Get("X-Debug") == "true" {
		return true
	}
	if !c.Enabled {
		return false
	}
	if len(c.Environments) == 0 {
		return true
	}
	for _, env := range c.Environments {
		if env == environment {
			return true
		}
	}
	return false
}

// Dispatcher orchestrates one transform request: it fetches the source
// object once, resolves the route policy, tries the eligible strategies
// strictly in order and guarantees a response is always produced.
type Dispatcher struct {
	store    storage.ObjectStore
	resolver *engine.Resolver
	registry *Registry
	headers  *HeaderCache
	sink     Sink
	diag     DiagnosticsConfig
	log      *zap.Logger
}

// NewDispatcher wires the dispatcher with fully constructed
// collaborators.
func NewDispatcher(store storage.ObjectStore, resolver *engine.Resolver, registry *Registry, headers *HeaderCache, sink Sink, diag DiagnosticsConfig, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = HeaderSink{}
	}
	return &Dispatcher{
		store:    store,
		resolver: resolver,
		registry: registry,
		headers:  headers,
		sink:     sink,
		diag:     diag,
		log:      log,
	}
}

// Process produces the best-effort transformed response for req.
//
// The returned response is always non-nil and writable. The error is nil
// except for the two terminal outcomes: *NotFoundError (status 404) and
// *FetchError (status 500). Transform-technique failures never surface
// as errors; when every strategy fails the original bytes come back with
// status 200 and a degradation marker.
func (d *Dispatcher) Process(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	log := d.log.With(zap.String("request_id", req.ID), zap.String("key", req.Key))

	// Fetch the source object once. Strategies borrow the handle.
	if req.Object == nil {
		handle, err := d.store.Get(ctx, req.Key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				metrics.RecordRequest("not_found", time.Since(start).Seconds())
				resp := NewResponse(http.StatusNotFound, "text/plain", []byte("object not found"))
				resp.Header.Set(HeaderStrategyAttempts, "none")
				return resp, &NotFoundError{Key: req.Key}
			}
			metrics.RecordRequest("fetch_error", time.Since(start).Seconds())
			log.Error("object fetch failed", zap.Error(err))
			resp := NewResponse(http.StatusInternalServerError, "text/plain", []byte("object fetch failed"))
			return resp, &FetchError{Key: req.Key, Err: err}
		}
		req.Object = handle
	}
	// Read the borrowed stream up front so the original bytes stay
	// available for the degraded path after strategies ran.
	original, err := req.Object.Bytes()
	if err != nil {
		metrics.RecordRequest("fetch_error", time.Since(start).Seconds())
		log.Error("object read failed", zap.Error(err))
		resp := NewResponse(http.StatusInternalServerError, "text/plain", []byte("object fetch failed"))
		return resp, &FetchError{Key: req.Key, Err: err}
	}

	policy := d.resolver.ResolvePolicy(req.HTTP.URL)
	diag := NewDiagnostics(policy.Classification.DomainType(), policy.Environment, policy.Enabled, policy.Disabled)
	decorate := d.diag.enabledFor(policy.Environment, req.HTTP)

	candidates := d.registry.FindEligible(ctx, req, policy)
	log.Debug("resolved strategy candidates",
		zap.String("domain_type", diag.DomainType),
		zap.String("environment", policy.Environment),
		zap.Int("count", len(candidates)))

	for _, s := range candidates {
		diag.RecordAttempt(s.Name())
		resp, err := execute(ctx, s, req)
		if err != nil {
			diag.RecordFailure(s.Name(), err.Error())
			metrics.RecordAttempt(s.Name(), "failure")
			log.Warn("strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			continue
		}

		diag.Selected = s.Name()
		metrics.RecordAttempt(s.Name(), "success")
		metrics.RecordRequest("transformed", time.Since(start).Seconds())
		d.finishResponse(resp, req, s.Name())
		if decorate {
			d.sink.Decorate(resp.Header, diag)
		}
		log.Info("strategy selected",
			zap.String("strategy", s.Name()),
			zap.Int("status", resp.Status),
			zap.Duration("elapsed", time.Since(start)))
		return resp, nil
	}

	// Every candidate failed, or none were eligible. Serve the original
	// bytes; transform failure alone never produces an error status.
	metrics.RecordRequest("degraded", time.Since(start).Seconds())
	resp := NewResponse(http.StatusOK, req.Object.ContentType, original)
	resp.Header.Set(HeaderTransformFailed, "true")
	resp.Header.Set(HeaderStrategyAttempts, diag.AttemptedList())
	d.finishResponse(resp, req, "original")
	if decorate {
		d.sink.Decorate(resp.Header, diag)
	}
	log.Info("all strategies exhausted, serving original",
		zap.Strings("attempted", diag.Attempted))
	return resp, nil
}

// execute runs one strategy, converting panics into recorded failures so
// a misbehaving strategy cannot take the chain down.
func execute(ctx context.Context, s Strategy, req *Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	resp, err = s.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("strategy returned no response")
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, fmt.Errorf("strategy returned status %d", resp.Status)
	}
	return resp, nil
}

// finishResponse merges derived cache headers into the response without
// clobbering anything the strategy set.
func (d *Dispatcher) finishResponse(resp *Response, req *Request, source string) {
	if d.headers == nil {
		return
	}
	derivative := ""
	if req.Options.Extra != nil {
		derivative = req.Options.Extra["derivative"]
	}
	for key, values := range d.headers.Get(resp.Status, req.CachePolicy, source, derivative) {
		if resp.Header.Get(key) != "" {
			continue
		}
		for _, value := range values {
			resp.Header.Add(key, value)
		}
	}
}
