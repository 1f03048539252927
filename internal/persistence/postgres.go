package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hourglass-exchange/hourglass/internal/model"
)

// PostgresSink archives ExitedPosition rows in Postgres. All monetary
// values round-trip through NUMERIC/TEXT, never float, for exact decimal
// precision — every amount is bound and scanned as a string.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Archive(ctx context.Context, session string, p model.ExitedPosition) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exited_positions
		 (session, instrument, direction, qty, avg_entry, exit_price, realized_pnl, open_ts, close_ts, exit_reason)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8, $9, $10)`,
		session, p.Instrument.Symbol(), p.Direction,
		p.Qty.String(), p.AvgEntryPrice.String(), p.ExitPrice.String(), p.RealizedPnL.String(),
		p.OpenTs, p.CloseTs, p.ExitReason,
	)
	if err != nil {
		return fmt.Errorf("archive exited position for session %s: %w", session, err)
	}
	return nil
}

func (s *PostgresSink) ListBySession(ctx context.Context, session string) ([]model.ExitedPosition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT instrument, direction,
		        qty::TEXT, avg_entry::TEXT, exit_price::TEXT, realized_pnl::TEXT,
		        open_ts, close_ts, exit_reason
		 FROM exited_positions WHERE session = $1 ORDER BY close_ts`, session)
	if err != nil {
		return nil, fmt.Errorf("list exited positions for session %s: %w", session, err)
	}
	defer rows.Close()

	var out []model.ExitedPosition
	for rows.Next() {
		var p model.ExitedPosition
		var symbol string
		var qty, avgEntry, exitPrice, realizedPnL string

		if err := rows.Scan(&symbol, &p.Direction,
			&qty, &avgEntry, &exitPrice, &realizedPnL,
			&p.OpenTs, &p.CloseTs, &p.ExitReason); err != nil {
			return nil, err
		}
		p.Qty, _ = decimal.NewFromString(qty)
		p.AvgEntryPrice, _ = decimal.NewFromString(avgEntry)
		p.ExitPrice, _ = decimal.NewFromString(exitPrice)
		p.RealizedPnL, _ = decimal.NewFromString(realizedPnL)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Schema is the DDL this sink expects. cmd/hourglass applies it once
// at startup when DATABASE_URL is set; there is no migration tool in the
// pack's stack, so this mirrors teacher's bare CREATE TABLE IF NOT EXISTS
// approach rather than pulling in one.
const Schema = `
CREATE TABLE IF NOT EXISTS exited_positions (
	id            BIGSERIAL PRIMARY KEY,
	session       TEXT NOT NULL,
	instrument    TEXT NOT NULL,
	direction     TEXT NOT NULL,
	qty           NUMERIC NOT NULL,
	avg_entry     NUMERIC NOT NULL,
	exit_price    NUMERIC NOT NULL,
	realized_pnl  NUMERIC NOT NULL,
	open_ts       BIGINT NOT NULL,
	close_ts      BIGINT NOT NULL,
	exit_reason   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS exited_positions_session_idx ON exited_positions (session);
`
