// Package lookup resolves reference data for the quote edit view: cities for a
// postal code, vehicle makes and models, and the per-view shared lists
// (insurers, statuses, nationalities).
//
// Every lookup is read-only and degrades to an empty result on failure.
package lookup

import (
	"context"
)

type Make struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type Model struct {
	ID     string `json:"id" yaml:"id"`
	MakeID string `json:"makeId" yaml:"make_id"`
	Name   string `json:"name" yaml:"name"`
}

type Insurer struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type StatusOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

type Nationality struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Resolver serves the per-field lookups driven by operator input.
type Resolver interface {
	CitiesByPostalCode(ctx context.Context, postalCode string) ([]string, error)
	SearchMakes(ctx context.Context, prefix string) ([]Make, error)
	SearchModels(ctx context.Context, makeID, prefix string) ([]Model, error)
}

// ReferenceSource serves the lists loaded once per view session.
type ReferenceSource interface {
	ListInsurers(ctx context.Context) ([]Insurer, error)
	ListStatuses(ctx context.Context) ([]StatusOption, error)
	ListNationalities(ctx context.Context) ([]Nationality, error)
}

// Catalog is a complete reference-data backend.
type Catalog interface {
	Resolver
	ReferenceSource
}

// Metrics is implemented by lookup/metrics.Metrics. A nil value disables
// recording.
type Metrics interface {
	IncrementLookup(pipeline, result string)
	IncrementSuperseded(pipeline string)
}
