package node

import (
	"net/http"

	"github.com/go-sod/sensord/internal/httputil"
	"github.com/go-sod/sensord/internal/reading/model"
)

type Currenter interface {
	Current() model.Reading
}

// NewHandler serves GET /node/data.
func NewHandler(src Currenter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			httputil.RespError(r.Context(), w, http.StatusMethodNotAllowed, "method %v is not allowed", r.Method)
			return
		}
		httputil.RespJSON(r.Context(), w, http.StatusOK, src.Current())
	})
}
