// Package predict serves POST /predict.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-sod/sensord/internal/classify"
	"github.com/go-sod/sensord/internal/httputil"
	"github.com/go-sod/sensord/internal/reading/model"
)

const maxBodyBytes = 64 * 1024

// request fields are pointers so that a missing field is told apart from 0.
type request struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	SoundVolume *float64 `json:"sound_volume"`
}

func (r request) reading() (model.Reading, error) {
	for _, f := range []struct {
		name  string
		value *float64
	}{
		{model.FieldTemperature, r.Temperature},
		{model.FieldHumidity, r.Humidity},
		{model.FieldSoundVolume, r.SoundVolume},
	} {
		if f.value == nil {
			return model.Reading{}, &classify.ValidationError{Err: errors.New("field " + f.name + " is required")}
		}
	}
	return model.Reading{Temperature: *r.Temperature, Humidity: *r.Humidity, SoundVolume: *r.SoundVolume}, nil
}

type Response struct {
	IsAnomaly bool `json:"is_anomaly"`
}

func NewHandler(cfg *Config, svc classify.Predicter) http.Handler {
	return &handler{
		cfg: cfg,
		svc: svc,
	}
}

type handler struct {
	cfg *Config
	svc classify.Predicter
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httputil.RespError(ctx, w, http.StatusMethodNotAllowed, "method %v is not allowed", r.Method)
		return
	}
	if t, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || t != "application/json" {
		httputil.RespError(ctx, w, http.StatusUnsupportedMediaType, "content-type is not application/json")
		return
	}

	defer r.Body.Close()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	var req request
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}
	if d.More() {
		httputil.RespBadRequest(ctx, w, "body must contain a single json object")
		return
	}

	reading, err := req.reading()
	if err != nil {
		httputil.RespBadRequest(ctx, w, "%v", err)
		return
	}

	isAnomaly, err := h.svc.Predict(ctx, reading)
	if err != nil {
		var vErr *classify.ValidationError
		if errors.As(err, &vErr) {
			httputil.RespBadRequest(ctx, w, "%v", err)
			return
		}
		httputil.RespInternalError(ctx, w, "predict processing error: %v", err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, Response{IsAnomaly: isAnomaly})
}
