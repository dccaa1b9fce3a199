package lookup

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ReferenceData is the read-only list set shared by every sub-form of a view.
type ReferenceData struct {
	Insurers      []Insurer      `json:"insurers"`
	Statuses      []StatusOption `json:"statuses"`
	Nationalities []Nationality  `json:"nationalities"`
}

// Reference loads ReferenceData once and hands out the same lists afterwards.
// A list whose source fails is empty; the others are unaffected.
type Reference struct {
	source ReferenceSource
	logger *slog.Logger

	once sync.Once
	data ReferenceData
}

func NewReference(source ReferenceSource, logger *slog.Logger) *Reference {
	return &Reference{source: source, logger: logger}
}

// Load fetches the three lists concurrently on first use.
func (r *Reference) Load(ctx context.Context) ReferenceData {
	r.once.Do(func() {
		r.data = r.fetch(ctx)
	})
	return r.data
}

func (r *Reference) fetch(ctx context.Context) ReferenceData {
	data := ReferenceData{
		Insurers:      []Insurer{},
		Statuses:      []StatusOption{},
		Nationalities: []Nationality{},
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		insurers, err := r.source.ListInsurers(gctx)
		if err != nil {
			r.warn(gctx, "insurers", err)
			return nil
		}
		data.Insurers = insurers
		return nil
	})
	g.Go(func() error {
		statuses, err := r.source.ListStatuses(gctx)
		if err != nil {
			r.warn(gctx, "statuses", err)
			return nil
		}
		data.Statuses = statuses
		return nil
	})
	g.Go(func() error {
		nationalities, err := r.source.ListNationalities(gctx)
		if err != nil {
			r.warn(gctx, "nationalities", err)
			return nil
		}
		data.Nationalities = nationalities
		return nil
	})

	_ = g.Wait()
	return data
}

func (r *Reference) warn(ctx context.Context, list string, err error) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, "reference list unavailable", "list", list, "error", err)
	}
}
