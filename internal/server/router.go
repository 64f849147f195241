package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"changerisk/internal/metrics"
	"changerisk/internal/score"
	"changerisk/internal/scorecard"
	"changerisk/internal/validation"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-Id"
)

// ApiRouter manages the scoring service routes.
type ApiRouter struct {
	// manager: owner of the live scorecard snapshot, used for reload and inspection.
	manager *scorecard.Manager
	// scorer: scores validated change records.
	scorer score.RecordScorer
	// validator: schema and guard checks applied before scoring.
	validator *validation.Validator
}

type errorResponse struct {
	Detail  string   `json:"detail"`
	Reasons []string `json:"reasons,omitempty"`
}

type reloadResponse struct {
	Status   string   `json:"status"`
	Version  int      `json:"version"`
	Features []string `json:"features"`
}

type healthResponse struct {
	Status     string                  `json:"status"`
	Version    int                     `json:"version"`
	ScoreName  string                  `json:"score_name"`
	LastReload *scorecard.ReloadEvent  `json:"last_reload,omitempty"`
	Reloads    []scorecard.ReloadEvent `json:"reloads"`
}

type scorecardResponse struct {
	Version    int              `json:"version"`
	BasePoints float64          `json:"base_points"`
	Scorecard  []scorecard.Row  `json:"scorecard"`
	Bands      []scorecard.Band `json:"bands"`
}

// Mux returns a configured *http.ServeMux with registered handlers.
// Registers the following routes:
// - POST /score-change: scores a change record
// - POST /reload-config: reloads the scorecard document
// - GET /health: reports the live scorecard version
// - GET /scorecard: exposes the live scorecard definition
// - GET /metrics: Prometheus metrics
func (ar *ApiRouter) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /score-change", ar.scoreHandler)
	mux.HandleFunc("POST /reload-config", ar.reloadHandler)
	mux.HandleFunc("GET /health", ar.healthHandler)
	mux.HandleFunc("GET /scorecard", ar.scorecardHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// scoreHandler validates the change record in the request body and scores it.
// Responds 413 when the body exceeds maxBodyBytes, 422 when the record fails
// validation, 400 when the scorecard cannot bin one of its values and 500 on any
// other failure.
func (ar *ApiRouter) scoreHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set(requestIDHeader, requestID)
	log := slog.With("request_id", requestID)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("Unable to read score request body", "error", err)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: "request body too large"})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "unable to read request body"})
		return
	}
	defer r.Body.Close()

	record, err := validation.DecodeRecord(body)
	if err == nil {
		err = ar.validator.Validate(record)
	}
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			log.Warn("Invalid change input", "reasons", verr.Reasons)
			metrics.RecordScoreError("validation")
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid change input", Reasons: verr.Reasons})
			return
		}
		log.Error("Validation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	start := time.Now()
	result, err := ar.scorer.Score(score.Record(record))
	if err != nil {
		metrics.RecordScoreError(scorecard.ErrorKind(err))
		if scorecard.IsInputError(err) {
			log.Warn("Unable to score change", "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid value for feature: " + err.Error()})
			return
		}
		log.Error("Scoring failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}
	metrics.RecordScore(result.Band, time.Since(start))

	log.Info("Change scored", "version", result.Version, "score", result.Score, "band", result.Band)
	writeJSON(w, http.StatusOK, result)
}

// reloadHandler rebuilds the scorecard from its document. On failure the previous
// scorecard keeps serving and 500 is returned.
func (ar *ApiRouter) reloadHandler(w http.ResponseWriter, r *http.Request) {
	card, err := ar.manager.Reload(ar.manager.Path())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, reloadResponse{
		Status:   "reloaded",
		Version:  card.Version,
		Features: card.Features(),
	})
}

// healthHandler reports the live scorecard version and the retained reload attempts.
func (ar *ApiRouter) healthHandler(w http.ResponseWriter, r *http.Request) {
	card := ar.manager.Current()
	if card == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: scorecard.ErrUninitialized.Error()})
		return
	}

	resp := healthResponse{
		Status:    "healthy",
		Version:   card.Version,
		ScoreName: card.ScoreName,
		Reloads:   ar.manager.History(),
	}
	if last, ok := ar.manager.LastReload(); ok {
		resp.LastReload = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

// scorecardHandler returns the live scorecard definition: every bin with its points
// and the band thresholds.
func (ar *ApiRouter) scorecardHandler(w http.ResponseWriter, r *http.Request) {
	card := ar.manager.Current()
	if card == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: scorecard.ErrUninitialized.Error()})
		return
	}

	writeJSON(w, http.StatusOK, scorecardResponse{
		Version:    card.Version,
		BasePoints: card.BasePoints,
		Scorecard:  card.Rows(),
		Bands:      card.Bands(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// NewApiRouter creates the service router.
func NewApiRouter(
	manager *scorecard.Manager,
	scorer score.RecordScorer,
	validator *validation.Validator,
) *ApiRouter {
	return &ApiRouter{
		manager:   manager,
		scorer:    scorer,
		validator: validator,
	}
}
