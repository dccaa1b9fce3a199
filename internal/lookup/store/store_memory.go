// Package store provides reference catalog backends and lookup caches.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"brokerdesk/internal/lookup"
)

//go:embed catalog.yaml
var defaultSeed []byte

// Seed is the YAML shape of a reference catalog.
type Seed struct {
	PostalCodes   map[string][]string   `yaml:"postal_codes"`
	Makes         []lookup.Make         `yaml:"makes"`
	Models        []lookup.Model        `yaml:"models"`
	Insurers      []lookup.Insurer      `yaml:"insurers"`
	Statuses      []lookup.StatusOption `yaml:"statuses"`
	Nationalities []lookup.Nationality  `yaml:"nationalities"`
}

// MemoryCatalog serves reference data from memory.
type MemoryCatalog struct {
	mu   sync.RWMutex
	seed Seed
}

// NewMemoryCatalog loads the built-in seed.
func NewMemoryCatalog() (*MemoryCatalog, error) {
	return ParseMemoryCatalog(defaultSeed)
}

// ParseMemoryCatalog loads a catalog from YAML.
func ParseMemoryCatalog(raw []byte) (*MemoryCatalog, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	sort.SliceStable(seed.Makes, func(i, j int) bool {
		return strings.ToLower(seed.Makes[i].Name) < strings.ToLower(seed.Makes[j].Name)
	})
	return &MemoryCatalog{seed: seed}, nil
}

func (c *MemoryCatalog) CitiesByPostalCode(_ context.Context, postalCode string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.seed.PostalCodes[strings.TrimSpace(postalCode)]...), nil
}

func (c *MemoryCatalog) SearchMakes(_ context.Context, prefix string) ([]lookup.Make, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	out := []lookup.Make{}
	for _, m := range c.seed.Makes {
		if strings.HasPrefix(strings.ToLower(m.Name), prefix) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) SearchModels(_ context.Context, makeID, prefix string) ([]lookup.Model, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	out := []lookup.Model{}
	for _, m := range c.seed.Models {
		if m.MakeID == makeID && strings.HasPrefix(strings.ToLower(m.Name), prefix) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *MemoryCatalog) ListInsurers(context.Context) ([]lookup.Insurer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]lookup.Insurer{}, c.seed.Insurers...), nil
}

func (c *MemoryCatalog) ListStatuses(context.Context) ([]lookup.StatusOption, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]lookup.StatusOption{}, c.seed.Statuses...), nil
}

func (c *MemoryCatalog) ListNationalities(context.Context) ([]lookup.Nationality, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]lookup.Nationality{}, c.seed.Nationalities...), nil
}
