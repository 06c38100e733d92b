package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	pkgch "github.com/OQueQuantFirm/Market-Analyzer/pkg/clickhouse"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
)

const observationsTable = "imbalance_observations"

// Schema returns idempotent DDL for all ClickHouse tables. Passed to
// pkgch.Client.InitSchema at startup.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3),
			instrument String,
			imbalance Float64
		) ENGINE = MergeTree()
		ORDER BY (instrument, ts)
		TTL toDateTime(ts) + INTERVAL 30 DAY`, database, observationsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3),
			instrument String,
			price Float64,
			oscillator Float64,
			imbalance Float64,
			signal String,
			error String
		) ENGINE = MergeTree()
		ORDER BY (instrument, ts)`, database, recordsTable),
	}
}

// CHObservationStore implements ObservationStore backed by ClickHouse.
type CHObservationStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewCHObservationStore creates a ClickHouse observation store.
func NewCHObservationStore(ch *pkgch.Client, l *applogger.Logger) *CHObservationStore {
	return &CHObservationStore{db: ch.DB(), l: l}
}

func (s *CHObservationStore) Append(ctx context.Context, obs models.ImbalanceObservation) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, instrument, imbalance) VALUES (?, ?, ?)", observationsTable)
	_, err := s.db.ExecContext(ctx, q,
		obs.Timestamp,
		obs.Instrument,
		obs.Imbalance,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse append observation error",
				applogger.String("instrument", obs.Instrument),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append observation: %w", err)
	}
	return nil
}

// History returns the most recent limit observations, oldest first.
func (s *CHObservationStore) History(ctx context.Context, instrument string, limit int) ([]models.ImbalanceObservation, error) {
	q := fmt.Sprintf(`
		SELECT ts, instrument, imbalance
		FROM (
			SELECT ts, instrument, imbalance FROM %s
			WHERE instrument = ? ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC`, observationsTable)
	rows, err := s.db.QueryContext(ctx, q, instrument, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.ImbalanceObservation, 0, limit)
	for rows.Next() {
		var obs models.ImbalanceObservation
		if err := rows.Scan(&obs.Timestamp, &obs.Instrument, &obs.Imbalance); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}
