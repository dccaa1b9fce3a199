package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"brokerdesk/internal/lookup"
	"brokerdesk/pkg/platform/sentinel"
)

// PostgresCatalog reads reference data from the back-office database.
//
// Expected tables: ref_postal_codes(code text primary key, cities text[]),
// ref_vehicle_makes(id, name), ref_vehicle_models(id, make_id, name),
// ref_insurers(id, name), ref_quote_statuses(value, label, position),
// ref_nationalities(code, label).
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) CitiesByPostalCode(ctx context.Context, postalCode string) ([]string, error) {
	var cities pq.StringArray
	err := c.db.QueryRowContext(ctx,
		`SELECT cities FROM ref_postal_codes WHERE code = $1`,
		strings.TrimSpace(postalCode),
	).Scan(&cities)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, translate(err, "cities by postal code")
	}
	return []string(cities), nil
}

func (c *PostgresCatalog) SearchMakes(ctx context.Context, prefix string) ([]lookup.Make, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id::text, name FROM ref_vehicle_makes
		 WHERE name ILIKE $1 || '%'
		 ORDER BY lower(name)
		 LIMIT 50`,
		escapeLike(strings.TrimSpace(prefix)),
	)
	if err != nil {
		return nil, translate(err, "search makes")
	}
	defer rows.Close()

	out := []lookup.Make{}
	for rows.Next() {
		var m lookup.Make
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan make: %w", err)
		}
		out = append(out, m)
	}
	return out, translate(rows.Err(), "search makes")
}

func (c *PostgresCatalog) SearchModels(ctx context.Context, makeID, prefix string) ([]lookup.Model, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id::text, make_id::text, name FROM ref_vehicle_models
		 WHERE make_id::text = $1 AND name ILIKE $2 || '%'
		 ORDER BY lower(name)`,
		makeID, escapeLike(strings.TrimSpace(prefix)),
	)
	if err != nil {
		return nil, translate(err, "search models")
	}
	defer rows.Close()

	out := []lookup.Model{}
	for rows.Next() {
		var m lookup.Model
		if err := rows.Scan(&m.ID, &m.MakeID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		out = append(out, m)
	}
	return out, translate(rows.Err(), "search models")
}

func (c *PostgresCatalog) ListInsurers(ctx context.Context) ([]lookup.Insurer, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id::text, name FROM ref_insurers ORDER BY name`)
	if err != nil {
		return nil, translate(err, "list insurers")
	}
	defer rows.Close()

	out := []lookup.Insurer{}
	for rows.Next() {
		var i lookup.Insurer
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, fmt.Errorf("scan insurer: %w", err)
		}
		out = append(out, i)
	}
	return out, translate(rows.Err(), "list insurers")
}

func (c *PostgresCatalog) ListStatuses(ctx context.Context) ([]lookup.StatusOption, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT value, label FROM ref_quote_statuses ORDER BY position`)
	if err != nil {
		return nil, translate(err, "list statuses")
	}
	defer rows.Close()

	out := []lookup.StatusOption{}
	for rows.Next() {
		var s lookup.StatusOption
		if err := rows.Scan(&s.Value, &s.Label); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, s)
	}
	return out, translate(rows.Err(), "list statuses")
}

func (c *PostgresCatalog) ListNationalities(ctx context.Context) ([]lookup.Nationality, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT code, label FROM ref_nationalities ORDER BY label`)
	if err != nil {
		return nil, translate(err, "list nationalities")
	}
	defer rows.Close()

	out := []lookup.Nationality{}
	for rows.Next() {
		var n lookup.Nationality
		if err := rows.Scan(&n.Code, &n.Label); err != nil {
			return nil, fmt.Errorf("scan nationality: %w", err)
		}
		out = append(out, n)
	}
	return out, translate(rows.Err(), "list nationalities")
}

// translate maps connection-class Postgres errors to sentinel.ErrUnavailable.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57") {
		return fmt.Errorf("%s: %s: %w", op, pqErr.Message, sentinel.ErrUnavailable)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
