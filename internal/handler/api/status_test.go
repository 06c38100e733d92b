package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/calibration"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObsStore struct {
	history []models.ImbalanceObservation
}

func (f *fakeObsStore) Append(ctx context.Context, obs models.ImbalanceObservation) error {
	return nil
}

func (f *fakeObsStore) History(ctx context.Context, instrument string, limit int) ([]models.ImbalanceObservation, error) {
	return f.history, nil
}

type fakeRecordStore struct {
	records []models.CycleRecord
	err     error
}

func (f *fakeRecordStore) Store(ctx context.Context, rec models.CycleRecord) error { return nil }

func (f *fakeRecordStore) Query(ctx context.Context, instrument string, from, to time.Time, limit int) ([]models.CycleRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[len(f.records)-limit:], nil
	}
	return f.records, nil
}

func (f *fakeRecordStore) Close() error { return nil }

func testHandler(t *testing.T, calibrated bool, records *fakeRecordStore) *StatusHandler {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	obs := &fakeObsStore{}
	if calibrated {
		now := time.Now().UTC()
		for _, v := range []float64{40, 20, -10, -30} {
			obs.history = append(obs.history, models.ImbalanceObservation{
				Timestamp: now, Instrument: "TIA/USDT:USDT", Imbalance: v,
			})
		}
	}
	recal := calibration.NewRecalibrator(obs, nil, l, "TIA/USDT:USDT", 100, time.Hour)
	if calibrated {
		recal.Warm(context.Background())
	}
	return NewStatusHandler(l, recal, records, "TIA/USDT:USDT")
}

func doRequest(h *StatusHandler, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func TestStatusIncludesLastCycle(t *testing.T) {
	records := &fakeRecordStore{records: []models.CycleRecord{{
		Timestamp:  time.Now().UTC(),
		Instrument: "TIA/USDT:USDT",
		Price:      4.2,
		Signal:     models.SignalBuy,
	}}}
	h := testHandler(t, true, records)

	rr := doRequest(h, "/api/status")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status int `json:"status"`
		Data   struct {
			Instrument string              `json:"instrument"`
			Calibrated bool                `json:"calibrated"`
			LastCycle  *models.CycleRecord `json:"last_cycle"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, "TIA/USDT:USDT", body.Data.Instrument)
	assert.True(t, body.Data.Calibrated)
	require.NotNil(t, body.Data.LastCycle)
	assert.Equal(t, models.SignalBuy, body.Data.LastCycle.Signal)
}

func TestThresholdsBeforeCalibration(t *testing.T) {
	h := testHandler(t, false, &fakeRecordStore{})

	rr := doRequest(h, "/api/thresholds")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
}

func TestThresholdsAfterCalibration(t *testing.T) {
	h := testHandler(t, true, &fakeRecordStore{})

	rr := doRequest(h, "/api/thresholds")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status int               `json:"status"`
		Data   models.Thresholds `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.InDelta(t, 30.0, body.Data.Buy, 1e-9)
	assert.InDelta(t, -20.0, body.Data.Sell, 1e-9)
}

func TestRecordsLimitValidation(t *testing.T) {
	h := testHandler(t, false, &fakeRecordStore{})

	rr := doRequest(h, "/api/records?limit=5000")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
}

func TestRecordsReturnsRows(t *testing.T) {
	records := &fakeRecordStore{records: []models.CycleRecord{
		{Timestamp: time.Now().UTC(), Instrument: "TIA/USDT:USDT", Signal: models.SignalNone},
		{Timestamp: time.Now().UTC(), Instrument: "TIA/USDT:USDT", Signal: models.SignalSell},
	}}
	h := testHandler(t, false, records)

	rr := doRequest(h, "/api/records?limit=10")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			Rows  []models.CycleRecord `json:"rows"`
			Total int64                `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Data.Total)
	assert.Len(t, body.Data.Rows, 2)
}
