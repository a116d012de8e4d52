// Package engine classifies request hosts and resolves per-route
// strategy policy.
package engine

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// defaultRestrictedPattern matches the platform default subdomain shape,
// e.g. "my-app.workers.dev".
const defaultRestrictedPattern = `^[a-z0-9-]+\.workers\.dev$`

// Built-in last-resort strategy orders, by domain classification. These
// apply only when neither the matched route nor the global configuration
// specifies an order.
var (
	builtinCustomOrder = []string{
		"native-transform",
		"gateway-url",
		"direct-url-native",
		"remote-fallback",
		"direct-serving",
	}
	builtinRestrictedOrder = []string{
		"direct-url-native",
		"remote-fallback",
		"degraded-native",
		"direct-serving",
	}
)

// Resolver classifies hosts and resolves route policies. Resolved
// policies are cached per distinct host for the resolver's lifetime.
type Resolver struct {
	mu         sync.RWMutex
	cfg        Config
	restricted *regexp.Regexp
	patterns   []*regexp.Regexp // parallel to cfg.Routes
	byHost     map[string]*RoutePolicy
}

// NewResolver compiles the configured patterns up front, like the route
// matchers they are.
func NewResolver(cfg Config) (*Resolver, error) {
	r := &Resolver{byHost: make(map[string]*RoutePolicy)}
	if err := r.load(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload swaps in a new routing configuration and drops the per-host
// policy cache.
func (r *Resolver) Reload(cfg Config) error {
	return r.load(cfg)
}

func (r *Resolver) load(cfg Config) error {
	pattern := cfg.RestrictedPattern
	if pattern == "" {
		pattern = defaultRestrictedPattern
	}
	restricted, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid restricted subdomain pattern %q: %w", pattern, err)
	}

	patterns := make([]*regexp.Regexp, len(cfg.Routes))
	for i, route := range cfg.Routes {
		re, err := compileHostPattern(route.Pattern)
		if err != nil {
			return fmt.Errorf("invalid route pattern %q: %w", route.Pattern, err)
		}
		patterns[i] = re
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.restricted = restricted
	r.patterns = patterns
	r.byHost = make(map[string]*RoutePolicy)
	return nil
}

// compileHostPattern translates a wildcard host pattern into a regexp;
// "*" matches exactly one label.
func compileHostPattern(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(strings.ToLower(pattern))
	escaped = strings.ReplaceAll(escaped, `\*`, `[^.]+`)
	return regexp.Compile("^" + escaped + "$")
}

// Classify reports the domain class of a host. A host matching the
// restricted-subdomain pattern is never a custom domain, and vice versa.
func (r *Resolver) Classify(host string) Classification {
	r.mu.RLock()
	restricted := r.restricted
	r.mu.RUnlock()

	if restricted.MatchString(normalizeHost(host)) {
		return Classification{IsRestrictedSubdomain: true}
	}
	return Classification{IsCustomDomain: true}
}

// ResolvePolicy returns the effective policy for the request URL's host.
// The first configured route whose pattern matches the host wins; with
// no match a default policy tagged with the classified environment is
// synthesized. Results are cached per distinct host.
func (r *Resolver) ResolvePolicy(u *url.URL) *RoutePolicy {
	host := normalizeHost(u.Host)

	r.mu.RLock()
	if policy, ok := r.byHost[host]; ok {
		r.mu.RUnlock()
		return policy
	}
	r.mu.RUnlock()

	policy := r.buildPolicy(host)

	r.mu.Lock()
	r.byHost[host] = policy
	r.mu.Unlock()
	return policy
}

// PriorityOrderFor returns the effective strategy order for the URL.
func (r *Resolver) PriorityOrderFor(u *url.URL) []string {
	return r.ResolvePolicy(u).PriorityOrder
}

// IsEnabledFor reports whether the named strategy may run for the URL.
func (r *Resolver) IsEnabledFor(name string, u *url.URL) bool {
	return !r.ResolvePolicy(u).IsDisabled(name)
}

func (r *Resolver) buildPolicy(host string) *RoutePolicy {
	class := r.Classify(host)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched *Route
	for i := range r.cfg.Routes {
		if r.patterns[i].MatchString(host) {
			matched = &r.cfg.Routes[i]
			break
		}
	}

	policy := &RoutePolicy{Classification: class}
	if matched != nil {
		policy.Pattern = matched.Pattern
		policy.Environment = matched.Environment
		policy.PriorityOrder = matched.PriorityOrder
		policy.Enabled = matched.Enabled
		policy.Disabled = matched.Disabled
	}
	if policy.Environment == "" {
		policy.Environment = defaultEnvironment(class)
	}

	// Route override wins, then the global default, then the built-in
	// order for the domain class.
	if len(policy.PriorityOrder) == 0 {
		policy.PriorityOrder = r.cfg.DefaultOrder
	}
	if len(policy.PriorityOrder) == 0 {
		policy.PriorityOrder = builtinOrder(class)
	}
	if len(policy.Enabled) == 0 {
		policy.Enabled = r.cfg.DefaultEnabled
	}
	if len(policy.Disabled) == 0 {
		policy.Disabled = r.cfg.DefaultDisabled
	}
	return policy
}

func builtinOrder(class Classification) []string {
	if class.IsRestrictedSubdomain {
		return builtinRestrictedOrder
	}
	return builtinCustomOrder
}

func defaultEnvironment(class Classification) string {
	if class.IsRestrictedSubdomain {
		return "development"
	}
	return "production"
}

// normalizeHost lowercases the host and strips any port.
func normalizeHost(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
