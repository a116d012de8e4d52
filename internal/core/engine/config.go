package engine

// Config defines the routing configuration for the domain resolver.
type Config struct {
	// RestrictedPattern matches the platform-provided default subdomains
	// with reduced native-transform support. Empty uses the built-in
	// pattern.
	RestrictedPattern string `mapstructure:"restricted_pattern"`
	// DefaultOrder is the global default strategy order, consulted when a
	// route has no explicit override.
	DefaultOrder []string `mapstructure:"default_order"`
	// DefaultEnabled restricts strategies globally when non-empty.
	DefaultEnabled []string `mapstructure:"default_enabled"`
	// DefaultDisabled disables strategies globally.
	DefaultDisabled []string `mapstructure:"default_disabled"`
	// Routes are matched against the request host in order; the first
	// match wins.
	Routes []Route `mapstructure:"routes"`
}

// Route is one configured host pattern with its policy overrides.
type Route struct {
	// Pattern is a host pattern; "*" matches one label ("*.example.com").
	Pattern string `mapstructure:"pattern"`
	// Environment tags the deployment profile ("production",
	// "development", ...).
	Environment string `mapstructure:"environment"`
	// PriorityOrder overrides the strategy order for this route.
	PriorityOrder []string `mapstructure:"priority_order"`
	// Enabled restricts the route to the listed strategies when non-empty.
	Enabled []string `mapstructure:"enabled"`
	// Disabled lists strategies never tried on this route.
	Disabled []string `mapstructure:"disabled"`
}

// Classification is the domain class of a request host.
type Classification struct {
	// IsRestrictedSubdomain is true for platform default subdomains.
	IsRestrictedSubdomain bool
	// IsCustomDomain is true for every other hostname. The two fields
	// are mutually exclusive.
	IsCustomDomain bool
}

// DomainType returns the classification as a diagnostic label.
func (c Classification) DomainType() string {
	if c.IsRestrictedSubdomain {
		return "restricted-subdomain"
	}
	return "custom"
}

// RoutePolicy is a fully resolved policy for one host: every field is
// populated through the route override → global default → built-in
// precedence, so consumers never probe defaults themselves.
type RoutePolicy struct {
	Pattern        string
	Environment    string
	PriorityOrder  []string
	Enabled        []string
	Disabled       []string
	Classification Classification
}

// IsDisabled reports whether the policy excludes the named strategy.
func (p *RoutePolicy) IsDisabled(name string) bool {
	for _, d := range p.Disabled {
		if d == name {
			return true
		}
	}
	if len(p.Enabled) > 0 {
		for _, e := range p.Enabled {
			if e == name {
				return false
			}
		}
		return true
	}
	return false
}
