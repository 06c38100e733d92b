package api

import (
	"time"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
	domrepo "github.com/OQueQuantFirm/Market-Analyzer/internal/domain/repository"
	"github.com/OQueQuantFirm/Market-Analyzer/internal/services/calibration"
	xhttp "github.com/OQueQuantFirm/Market-Analyzer/pkg/http"
	applogger "github.com/OQueQuantFirm/Market-Analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler exposes the read-only operational API.
type StatusHandler struct {
	logger     *applogger.Logger
	recal      *calibration.Recalibrator
	records    domrepo.RecordStore
	instrument string
	startedAt  time.Time
}

// NewStatusHandler creates the ops API handler.
func NewStatusHandler(logger *applogger.Logger, recal *calibration.Recalibrator, records domrepo.RecordStore, instrument string) *StatusHandler {
	return &StatusHandler{
		logger:     logger,
		recal:      recal,
		records:    records,
		instrument: instrument,
		startedAt:  time.Now().UTC(),
	}
}

// RegisterRoutes wires the API group.
func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/thresholds", h.Thresholds)
	g.GET("/records", h.Records)
}

type statusResponse struct {
	Instrument string              `json:"instrument"`
	StartedAt  time.Time           `json:"started_at"`
	UptimeSec  int64               `json:"uptime_sec"`
	Calibrated bool                `json:"calibrated"`
	LastCycle  *models.CycleRecord `json:"last_cycle,omitempty"`
}

// Status reports process liveness, calibration state and the most
// recent cycle.
func (h *StatusHandler) Status(c echo.Context) error {
	resp := statusResponse{
		Instrument: h.instrument,
		StartedAt:  h.startedAt,
		UptimeSec:  int64(time.Since(h.startedAt).Seconds()),
		Calibrated: h.recal.Current() != nil,
	}

	now := time.Now().UTC()
	recs, err := h.records.Query(c.Request().Context(), h.instrument, now.Add(-24*time.Hour), now, 1)
	if err != nil {
		h.logger.Warn("status: last cycle lookup failed", applogger.Error(err))
	} else if len(recs) > 0 {
		last := recs[len(recs)-1]
		resp.LastCycle = &last
	}

	return xhttp.SuccessResponse(c, resp)
}

// Thresholds returns the current calibrated thresholds, 404 before the
// first successful calibration.
func (h *StatusHandler) Thresholds(c echo.Context) error {
	th := h.recal.Current()
	if th == nil {
		return xhttp.NotFoundResponse(c, "no calibration yet")
	}
	return xhttp.SuccessResponse(c, th)
}

type recordsRequest struct {
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// Records returns recent cycle records, newest first.
func (h *StatusHandler) Records(c echo.Context) error {
	req := &recordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(req.To, now)

	recs, err := h.records.Query(c.Request().Context(), h.instrument, from, to, req.Limit)
	if err != nil {
		h.logger.Error("records query error", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("query records").WithError(err))
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}
