// Package catalog holds the static registry of domains and capabilities the
// planning pipeline consults. A Catalog is built once at startup, validated,
// and read-only thereafter; constructors receive it by injection so tests can
// substitute fixture catalogs.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Choi-Sungyun0716/deskmate/internal/types"
)

var (
	// ErrUnknownDomain is returned for a lookup of an unregistered domain.
	ErrUnknownDomain = errors.New("catalog: unknown domain")
	// ErrUnknownCapability is returned for a lookup of an unregistered capability.
	ErrUnknownCapability = errors.New("catalog: unknown capability")
)

// Catalog is the immutable registry. The zero value is not usable; build one
// with New, Default, or LoadFile.
type Catalog struct {
	caps        map[string]types.Capability
	domains     map[string]types.Domain
	capOrder    []string
	domainOrder []string
}

// New validates and indexes the given capabilities and domains.
// Validation: capability and domain names are unique, and every name in a
// domain's capability chain resolves to a registered capability.
func New(caps []types.Capability, domains []types.Domain) (*Catalog, error) {
	c := &Catalog{
		caps:    make(map[string]types.Capability, len(caps)),
		domains: make(map[string]types.Domain, len(domains)),
	}
	for _, cp := range caps {
		if cp.Name == "" {
			return nil, fmt.Errorf("catalog: capability with empty name")
		}
		if _, dup := c.caps[cp.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate capability %q", cp.Name)
		}
		c.caps[cp.Name] = cp
		c.capOrder = append(c.capOrder, cp.Name)
	}
	for _, d := range domains {
		if d.Name == "" {
			return nil, fmt.Errorf("catalog: domain with empty name")
		}
		if _, dup := c.domains[d.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate domain %q", d.Name)
		}
		for _, capName := range d.CapabilityChain {
			if _, ok := c.caps[capName]; !ok {
				return nil, fmt.Errorf("catalog: domain %q chain references %w: %q", d.Name, ErrUnknownCapability, capName)
			}
		}
		c.domains[d.Name] = d
		c.domainOrder = append(c.domainOrder, d.Name)
	}
	return c, nil
}

// Capability looks up one capability by name.
func (c *Catalog) Capability(name string) (types.Capability, error) {
	cp, ok := c.caps[name]
	if !ok {
		return types.Capability{}, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return cp, nil
}

// Domain looks up one domain by name.
func (c *Catalog) Domain(name string) (types.Domain, error) {
	d, ok := c.domains[name]
	if !ok {
		return types.Domain{}, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
	return d, nil
}

// HasDomain reports whether name is a registered domain.
func (c *Catalog) HasDomain(name string) bool {
	_, ok := c.domains[name]
	return ok
}

// Domains returns every registered domain in registration order.
func (c *Catalog) Domains() []types.Domain {
	out := make([]types.Domain, 0, len(c.domainOrder))
	for _, name := range c.domainOrder {
		out = append(out, c.domains[name])
	}
	return out
}

// Capabilities returns every registered capability in registration order.
func (c *Catalog) Capabilities() []types.Capability {
	out := make([]types.Capability, 0, len(c.capOrder))
	for _, name := range c.capOrder {
		out = append(out, c.caps[name])
	}
	return out
}

// document is the on-disk YAML shape accepted by LoadFile.
type document struct {
	Capabilities []types.Capability `yaml:"capabilities"`
	Domains      []types.Domain     `yaml:"domains"`
}

// LoadFile reads a YAML catalog document and validates it the same way New
// does. The file fully replaces the built-in default catalog.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if len(doc.Domains) == 0 {
		return nil, fmt.Errorf("catalog: %s declares no domains", path)
	}
	return New(doc.Capabilities, doc.Domains)
}
