package core

import (
	"net/http"
	"strings"

	"github.com/tidwall/sjson"
)

// Diagnostics header names. All decoration is additive: existing headers
// are never removed or replaced wholesale.
const (
	HeaderDebugSelected    = "X-Debug-Strategy-Selected"
	HeaderDebugFailures    = "X-Debug-Strategy-Failures"
	HeaderDebugDomain      = "X-Debug-Domain-Type"
	HeaderDebugEnvironment = "X-Debug-Environment"
	HeaderDebugEnabled     = "X-Debug-Strategies-Enabled"
	HeaderDebugDisabled    = "X-Debug-Strategies-Disabled"
)

// Diagnostics records what the dispatcher tried for one request.
// Selected and "all failed" are mutually exclusive: Selected is empty
// exactly when every attempted strategy failed (or none were eligible).
type Diagnostics struct {
	Attempted       []string
	Selected        string
	Failed          map[string]string
	DomainType      string
	EnvironmentType string
	Enabled         []string
	Disabled        []string
}

// NewDiagnostics builds an empty record for one request.
func NewDiagnostics(domainType, environmentType string, enabled, disabled []string) *Diagnostics {
	return &Diagnostics{
		Failed:          make(map[string]string),
		DomainType:      domainType,
		EnvironmentType: environmentType,
		Enabled:         enabled,
		Disabled:        disabled,
	}
}

// RecordAttempt appends a strategy to the attempted list.
func (d *Diagnostics) RecordAttempt(name string) {
	d.Attempted = append(d.Attempted, name)
}

// RecordFailure stores the failure message for a strategy.
func (d *Diagnostics) RecordFailure(name, message string) {
	d.Failed[name] = message
}

// AttemptedList returns the attempted names as a header value, or
// "none" when nothing ran.
func (d *Diagnostics) AttemptedList() string {
	if len(d.Attempted) == 0 {
		return "none"
	}
	return strings.Join(d.Attempted, ",")
}

// FailuresJSON returns the failure map as a compact JSON object.
func (d *Diagnostics) FailuresJSON() string {
	out := "{}"
	for _, name := range d.Attempted {
		msg, ok := d.Failed[name]
		if !ok {
			continue
		}
		out, _ = sjson.Set(out, name, msg)
	}
	return out
}

// Sink optionally decorates a response with diagnostics. Decoration must
// be additive.
type Sink interface {
	Decorate(h http.Header, d *Diagnostics)
}

// HeaderSink writes diagnostics as X-Debug-* response headers.
type HeaderSink struct{}

// Decorate implements Sink.
func (HeaderSink) Decorate(h http.Header, d *Diagnostics) {
	selected := d.Selected
	if selected == "" {
		selected = "none"
	}
	h.Set(HeaderDebugSelected, selected)
	h.Set(HeaderStrategyAttempts, d.AttemptedList())
	if len(d.Failed) > 0 {
		h.Set(HeaderDebugFailures, d.FailuresJSON())
	}
	if d.DomainType != "" {
		h.Set(HeaderDebugDomain, d.DomainType)
	}
	if d.EnvironmentType != "" {
		h.Set(HeaderDebugEnvironment, d.EnvironmentType)
	}
	if len(d.Enabled) > 0 {
		h.Set(HeaderDebugEnabled, strings.Join(d.Enabled, ","))
	}
	if len(d.Disabled) > 0 {
		h.Set(HeaderDebugDisabled, strings.Join(d.Disabled, ","))
	}
}
