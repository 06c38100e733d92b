package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

var csvHeader = []string{"timestamp", "instrument", "price", "oscillator", "imbalance", "signal", "error"}

// CSVRecordStore implements RecordStore on a local CSV file. Used as
// the lightweight backend when ClickHouse is not configured.
type CSVRecordStore struct {
	path string
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewCSVRecordStore opens (or creates) the CSV file and writes the
// header row on first creation.
func NewCSVRecordStore(path string) (*CSVRecordStore, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	s := &CSVRecordStore{path: path, file: f, w: csv.NewWriter(f)}
	if fresh {
		if err := s.w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("flush header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVRecordStore) Store(_ context.Context, rec models.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Instrument,
		strconv.FormatFloat(rec.Price, 'f', -1, 64),
		strconv.FormatFloat(rec.Oscillator, 'f', -1, 64),
		strconv.FormatFloat(rec.Imbalance, 'f', -1, 64),
		string(rec.Signal),
		rec.Error,
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	return nil
}

// Query reads the whole file and filters in memory. Fine for the
// bounded files this backend is meant for.
func (s *CSVRecordStore) Query(_ context.Context, instrument string, from, to time.Time, limit int) ([]models.CycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	out := make([]models.CycleRecord, 0, limit)
	// newest last on disk; walk backwards so limit keeps recent rows
	for i := len(rows) - 1; i >= 1 && len(out) < limit; i-- {
		row := rows[i]
		if len(row) != len(csvHeader) {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			continue
		}
		if instrument != "" && row[1] != instrument {
			continue
		}
		if !from.IsZero() && ts.Before(from) {
			continue
		}
		if !to.IsZero() && ts.After(to) {
			continue
		}
		out = append(out, models.CycleRecord{
			Timestamp:  ts,
			Instrument: row[1],
			Price:      parseFloat(row[2]),
			Oscillator: parseFloat(row[3]),
			Imbalance:  parseFloat(row[4]),
			Signal:     models.Signal(row[5]),
			Error:      row[6],
		})
	}
	return out, nil
}

func (s *CSVRecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.file.Close()
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
