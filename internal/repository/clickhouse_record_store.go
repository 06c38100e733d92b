package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	pkgch "github.com/OQueQuantFirm/Market-Analyzer/pkg/clickhouse"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"
)

const recordsTable = "cycle_records"

// CHRecordStore implements RecordStore backed by ClickHouse.
type CHRecordStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewCHRecordStore creates a ClickHouse record store.
func NewCHRecordStore(ch *pkgch.Client, l *applogger.Logger) *CHRecordStore {
	return &CHRecordStore{db: ch.DB(), l: l}
}

func (s *CHRecordStore) Store(ctx context.Context, rec models.CycleRecord) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, instrument, price, oscillator, imbalance, signal, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
		recordsTable,
	)
	_, err := s.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.Instrument,
		rec.Price,
		rec.Oscillator,
		rec.Imbalance,
		string(rec.Signal),
		rec.Error,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store record error",
				applogger.String("instrument", rec.Instrument),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func (s *CHRecordStore) Query(ctx context.Context, instrument string, from, to time.Time, limit int) ([]models.CycleRecord, error) {
	q := fmt.Sprintf(`
		SELECT ts, instrument, price, oscillator, imbalance, signal, error
		FROM %s
		WHERE instrument = ? AND ts >= ? AND ts <= ?
		ORDER BY ts DESC LIMIT ?`, recordsTable)
	rows, err := s.db.QueryContext(ctx, q, instrument, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]models.CycleRecord, 0, limit)
	for rows.Next() {
		var rec models.CycleRecord
		var sig string
		if err := rows.Scan(&rec.Timestamp, &rec.Instrument, &rec.Price, &rec.Oscillator, &rec.Imbalance, &sig, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Signal = models.Signal(sig)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close is a no-op; the connection pool is managed by pkg/clickhouse.
func (s *CHRecordStore) Close() error {
	return nil
}
