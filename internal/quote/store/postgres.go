package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"brokerdesk/internal/quote/payload"
	"brokerdesk/internal/quote/ports"
	id "brokerdesk/pkg/domain"
	"brokerdesk/pkg/platform/sentinel"
	txcontext "brokerdesk/pkg/platform/tx"
)

// PostgresGateway reads devis_<type>_view rows and calls the
// update_devis_<type>(p_id, p_payload) procedures. Each procedure returns a
// jsonb {success, data, error}; a procedure that raises is reported as a
// refusal carrying the exception message.
type PostgresGateway struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresGateway(pool *pgxpool.Pool, timeout time.Duration) *PostgresGateway {
	return &PostgresGateway{pool: pool, timeout: timeout}
}

var _ ports.QuoteGateway = (*PostgresGateway)(nil)

// relation names come from the closed quote type set, never from input
var (
	viewNames = map[id.QuoteType]string{
		id.QuoteTypeAuto:        "devis_auto_view",
		id.QuoteTypeHabitation:  "devis_habitation_view",
		id.QuoteTypeObseques:    "devis_obseques_view",
		id.QuoteTypeVoyage:      "devis_voyage_view",
		id.QuoteTypeRcFamiliale: "devis_rc_view",
	}
	procedureNames = map[id.QuoteType]string{
		id.QuoteTypeAuto:        "update_devis_auto",
		id.QuoteTypeHabitation:  "update_devis_habitation",
		id.QuoteTypeObseques:    "update_devis_obseques",
		id.QuoteTypeVoyage:      "update_devis_voyage",
		id.QuoteTypeRcFamiliale: "update_devis_rc",
	}
)

type procedureResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (g *PostgresGateway) FetchQuote(ctx context.Context, quoteType id.QuoteType, quoteID id.QuoteID) ([]byte, error) {
	view, ok := viewNames[quoteType]
	if !ok {
		return nil, fmt.Errorf("fetch quote: unknown type %q", quoteType)
	}
	query := `SELECT row_to_json(v)::text FROM ` + view + ` v WHERE v.id = $1::uuid`

	var raw string
	err := g.pool.QueryRow(ctx, query, quoteID.String()).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", view, quoteID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("fetch quote from %s: %w", view, err)
	}
	return []byte(raw), nil
}

func (g *PostgresGateway) UpdateQuote(ctx context.Context, p payload.UpdatePayload) (*ports.UpdateResult, error) {
	proc, ok := procedureNames[p.QuoteType()]
	if !ok {
		return nil, fmt.Errorf("update quote: unknown type %q", p.QuoteType())
	}
	body, err := payload.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", proc, err)
	}
	query := `SELECT ` + proc + `($1::uuid, $2::jsonb)::text`

	var result *ports.UpdateResult
	err = txcontext.Run(ctx, g.pool, g.timeout, func(ctx context.Context, tx pgx.Tx) error {
		var raw string
		if err := tx.QueryRow(ctx, query, p.QuoteID(), string(body)).Scan(&raw); err != nil {
			return err
		}
		var res procedureResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return fmt.Errorf("decode %s result: %w", proc, err)
		}
		result = &ports.UpdateResult{Success: res.Success, Error: res.Error}
		if len(res.Data) > 0 && string(res.Data) != "null" {
			result.Data = []byte(res.Data)
		}
		if !res.Success {
			// the procedure reported a refusal; nothing it wrote may stay
			return errRefused
		}
		return nil
	})
	if errors.Is(err, errRefused) {
		return result, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && raisedByProcedure(pgErr) {
		return &ports.UpdateResult{Error: pgErr.Message}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", proc, err)
	}
	return result, nil
}

var errRefused = errors.New("update refused")

// raisedByProcedure reports errors raised by the procedure body or by
// constraint checks, as opposed to connection or server failures.
func raisedByProcedure(e *pgconn.PgError) bool {
	if len(e.Code) < 2 {
		return false
	}
	switch e.Code[:2] {
	case "P0", "22", "23":
		return true
	}
	return false
}
