package microservice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the correlation ID of a lookup.
const RequestIDHeader = "X-Request-ID"

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

// LookupHandler serves GET requests by turning the query string into a
// provider.Request and writing the Response payload as JSON. A parameter
// given once becomes a string; a repeated parameter becomes a list.
func LookupHandler(p provider.Provider, logger zerolog.Logger) http.Handler {
	handlerLogger := logger.With().Str("component", "LookupHandler").Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
			return
		}

		params := make(map[string]any, len(r.URL.Query()))
		for name, values := range r.URL.Query() {
			if len(values) == 1 {
				params[name] = values[0]
			} else {
				params[name] = values
			}
		}
		req, err := provider.NewRequest(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}

		resp, err := p.Get(r.Context(), req)
		if err != nil {
			status := statusFor(err)
			handlerLogger.Debug().Err(err).Str("request_id", requestID).Int("status", status).Msg("Lookup failed.")
			writeError(w, status, err.Error(), requestID)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Payload)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound
	case provider.IsProviderError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message, RequestID: requestID})
}
