package proxy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mchmarny/scoreproxy/pkg/logging"
	"github.com/mchmarny/scoreproxy/pkg/metrics"
	"github.com/mchmarny/scoreproxy/pkg/query"
	"github.com/mchmarny/scoreproxy/pkg/scan"
)

// Scorer looks up the upstream JSON for an address on a chain.
type Scorer interface {
	Score(ctx context.Context, address, chainID string) ([]byte, error)
}

// ScoreHandler serves GET and POST score lookups through s and relays the
// upstream JSON verbatim.
func ScoreHandler(s Scorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logging.FromContext(r.Context())

		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			w.Header().Set("Allow", "GET, POST")
			writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			metrics.ObserveLookup(metrics.OutcomeMethod, time.Since(start))
			return
		}

		address, chainID := extractParams(w, r)
		if address == "" || chainID == "" {
			writeError(w, http.StatusBadRequest, msgMissingParams)
			metrics.ObserveLookup(metrics.OutcomeInvalidRequest, time.Since(start))
			return
		}

		log.Debug("score lookup", "address", address, "chain", chainID, "method", r.Method)

		body, err := s.Score(r.Context(), address, chainID)
		if err != nil {
			outcome := writeScoreError(w, err)
			if outcome == metrics.OutcomeInvalidRequest {
				log.Debug("rejected lookup", "chain", chainID, "error", err)
			} else {
				log.Error("proxy error", "address", address, "chain", chainID, "error", err)
			}
			metrics.ObserveLookup(outcome, time.Since(start))
			return
		}

		writeRaw(w, http.StatusOK, body)
		metrics.ObserveLookup(metrics.OutcomeOK, time.Since(start))
	}
}

// writeScoreError maps a lookup error onto the response envelope. Transport
// details are never returned to the caller.
func writeScoreError(w http.ResponseWriter, err error) string {
	var pe *scan.ParseError

	switch {
	case errors.Is(err, query.ErrMissingParam):
		writeError(w, http.StatusBadRequest, msgMissingParams)
		return metrics.OutcomeInvalidRequest
	case errors.Is(err, query.ErrInvalidChainID):
		writeError(w, http.StatusBadRequest, msgInvalidChainID)
		return metrics.OutcomeInvalidRequest
	case errors.As(err, &pe):
		raw := pe.Raw
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: msgInvalidJSON, Raw: &raw})
		return metrics.OutcomeUpstreamInvalid
	default:
		writeError(w, http.StatusInternalServerError, msgInternal)
		return metrics.OutcomeError
	}
}
