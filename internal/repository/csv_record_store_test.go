package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRecordStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	store, err := NewCSVRecordStore(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.Store(ctx, models.CycleRecord{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Instrument: "TIA/USDT:USDT",
			Price:      10.0 + float64(i),
			Oscillator: 42.5,
			Imbalance:  12.0,
			Signal:     models.SignalNone,
		})
		require.NoError(t, err)
	}

	recs, err := store.Query(ctx, "TIA/USDT:USDT", base, base.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// newest first
	assert.Equal(t, 12.0, recs[0].Price)
	assert.Equal(t, 10.0, recs[2].Price)
}

func TestCSVRecordStoreLimitKeepsRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	store, err := NewCSVRecordStore(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Store(ctx, models.CycleRecord{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Instrument: "TIA/USDT:USDT",
			Price:      float64(i),
			Signal:     models.SignalNone,
		}))
	}

	recs, err := store.Query(ctx, "TIA/USDT:USDT", time.Time{}, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 4.0, recs[0].Price)
	assert.Equal(t, 3.0, recs[1].Price)
}

func TestCSVRecordStoreErrorColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	store, err := NewCSVRecordStore(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, models.CycleRecord{
		Timestamp:  time.Now(),
		Instrument: "TIA/USDT:USDT",
		Signal:     models.SignalNone,
		Error:      "upstream returned no market data",
	}))

	recs, err := store.Query(ctx, "", time.Time{}, time.Time{}, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "upstream returned no market data", recs[0].Error)
}
