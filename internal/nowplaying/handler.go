package nowplaying

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorSummary is the fixed "error" field of every failure response.
const ErrorSummary = "Error fetching now playing"

const (
	unknownDetails = "Unknown error"
	allowedMethods = "GET, OPTIONS"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Fetcher produces the current View.
type Fetcher interface {
	NowPlaying(ctx context.Context) (View, error)
}

// Handler serves the View over HTTP. Callers only ever see 200 or 500.
type Handler struct {
	fetcher Fetcher
	log     *logrus.Entry
}

// NewHandler creates a new Handler.
func NewHandler(fetcher Fetcher, logger *logrus.Logger) *Handler {
	return &Handler{
		fetcher: fetcher,
		log:     logger.WithField("component", "nowplaying"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setHeaders(w.Header())

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	view, err := h.fetch(r.Context())
	if err != nil {
		kind, upstreamStatus := Classify(err)
		h.log.WithFields(logrus.Fields{
			"kind":           kind,
			"upstreamStatus": upstreamStatus,
			"error":          err,
		}).Error("failed to fetch now playing")

		h.write(w, http.StatusInternalServerError, ErrorResponse{
			Error:   ErrorSummary,
			Details: Details(err),
		})
		return
	}

	h.log.WithFields(logrus.Fields{
		"isPlaying": view.IsPlaying,
		"track":     view.Title,
	}).Debug("served now playing")
	h.write(w, http.StatusOK, view)
}

// fetch runs the pipeline, turning a panic into an ordinary failure.
func (h *Handler) fetch(ctx context.Context) (view View, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.WithField("panic", rec).Error("recovered panic while fetching now playing")
			err = panicError{value: rec}
		}
	}()
	return h.fetcher.NowPlaying(ctx)
}

func (h *Handler) write(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		h.log.WithError(err).Error("failed to encode response")
		status = http.StatusInternalServerError
		payload, _ = json.Marshal(ErrorResponse{Error: ErrorSummary, Details: unknownDetails})
	}
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		h.log.WithError(err).Warn("failed to write response")
	}
}

// Details is the failure message exposed to callers.
func Details(err error) string {
	if err == nil || err.Error() == "" {
		return unknownDetails
	}
	return err.Error()
}

func setHeaders(header http.Header) {
	header.Set("Content-Type", "application/json")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", allowedMethods)
}

// panicError wraps a recovered panic value. Only error values carry a message.
type panicError struct {
	value any
}

func (e panicError) Error() string {
	if err, ok := e.value.(error); ok {
		return err.Error()
	}
	return ""
}
