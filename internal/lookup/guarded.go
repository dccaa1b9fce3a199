package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"brokerdesk/pkg/platform/circuit"
	"brokerdesk/pkg/platform/sentinel"
)

// GuardedCatalog fails fast with sentinel.ErrUnavailable while the upstream
// catalog's breaker is open. Pipelines and Reference degrade that to empty.
type GuardedCatalog struct {
	next    Catalog
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedCatalog(next Catalog, breaker *circuit.Breaker, logger *slog.Logger) *GuardedCatalog {
	return &GuardedCatalog{next: next, breaker: breaker, logger: logger}
}

func guard[T any](ctx context.Context, c *GuardedCatalog, op string, call func() (T, error)) (T, error) {
	var zero T
	if !c.breaker.AllowRequest() {
		return zero, fmt.Errorf("%s: catalog circuit open: %w", op, sentinel.ErrUnavailable)
	}
	v, err := call()
	if err != nil {
		// a superseded lookup says nothing about upstream health
		if ctx.Err() != nil {
			return zero, err
		}
		if _, change := c.breaker.RecordFailure(); change.Opened && c.logger != nil {
			c.logger.WarnContext(ctx, "catalog circuit opened", "breaker", c.breaker.Name(), "op", op, "error", err)
		}
		return zero, err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed && c.logger != nil {
		c.logger.InfoContext(ctx, "catalog circuit closed", "breaker", c.breaker.Name())
	}
	return v, nil
}

func (c *GuardedCatalog) CitiesByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	return guard(ctx, c, "cities", func() ([]string, error) { return c.next.CitiesByPostalCode(ctx, postalCode) })
}

func (c *GuardedCatalog) SearchMakes(ctx context.Context, prefix string) ([]Make, error) {
	return guard(ctx, c, "makes", func() ([]Make, error) { return c.next.SearchMakes(ctx, prefix) })
}

func (c *GuardedCatalog) SearchModels(ctx context.Context, makeID, prefix string) ([]Model, error) {
	return guard(ctx, c, "models", func() ([]Model, error) { return c.next.SearchModels(ctx, makeID, prefix) })
}

func (c *GuardedCatalog) ListInsurers(ctx context.Context) ([]Insurer, error) {
	return guard(ctx, c, "insurers", func() ([]Insurer, error) { return c.next.ListInsurers(ctx) })
}

func (c *GuardedCatalog) ListStatuses(ctx context.Context) ([]StatusOption, error) {
	return guard(ctx, c, "statuses", func() ([]StatusOption, error) { return c.next.ListStatuses(ctx) })
}

func (c *GuardedCatalog) ListNationalities(ctx context.Context) ([]Nationality, error) {
	return guard(ctx, c, "nationalities", func() ([]Nationality, error) { return c.next.ListNationalities(ctx) })
}
