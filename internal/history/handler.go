// Package history serves the most recent rows of the reading log.
package history

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-sod/sensord/internal/classify"
	"github.com/go-sod/sensord/internal/httputil"
	"github.com/go-sod/sensord/internal/reading/model"
)

type latestFn func(ctx context.Context, limit int) ([]model.LabeledReading, error)

// NewReadingsHandler serves GET /latest_readings.
func NewReadingsHandler(cfg *Config, svc classify.Historian) http.Handler {
	return &handler{cfg: cfg, latest: svc.LatestReadings}
}

// NewAnomaliesHandler serves GET /latest_anomalies.
func NewAnomaliesHandler(cfg *Config, svc classify.Historian) http.Handler {
	return &handler{cfg: cfg, latest: svc.LatestAnomalies}
}

type handler struct {
	cfg    *Config
	latest latestFn
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	limit := h.cfg.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.RespBadRequest(ctx, w, "limit must be a non-negative integer, got %q", v)
			return
		}
		limit = n
	}

	rows, err := h.latest(ctx, limit)
	if err != nil {
		httputil.RespInternalError(ctx, w, "history query error: %v", err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, model.NewTable(rows))
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type HealthResponse struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

// NewHealthHandler reports ok together with the size of the log. A store that
// cannot be read is reported as unavailable.
func NewHealthHandler(cfg *Config, c Counter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), cfg.RequestTimeout)
		defer cancel()
		n, err := c.Count(ctx)
		if err != nil {
			httputil.RespError(ctx, w, http.StatusServiceUnavailable, "store unavailable: %v", err)
			return
		}
		httputil.RespJSON(ctx, w, http.StatusOK, HealthResponse{Status: "ok", Rows: n})
	})
}
