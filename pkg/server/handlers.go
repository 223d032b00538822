package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/Sumatoshi-tech/intervalidx/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervalidx/pkg/dataset"
	"github.com/Sumatoshi-tech/intervalidx/pkg/index"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

var (
	errMissingParam = errors.New("missing query parameter")
	errNotFound     = errors.New("interval not found")
)

// IntervalJSON is the wire form of one entry. Endpoints are rendered in the
// index kind, so ipv4 indexes show dotted addresses.
type IntervalJSON struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Name   string     `json:"name,omitempty"`
	Value  string     `json:"value,omitempty"`
	Labels labels.Set `json:"labels,omitempty"`
}

// PutRequest is the body of POST /v1/intervals.
type PutRequest struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Name   string            `json:"name,omitempty"`
	Value  string            `json:"value,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// PutResponse reports whether the interval was new.
type PutResponse struct {
	Inserted bool `json:"inserted"`
}

// ListResponse wraps a list of entries.
type ListResponse struct {
	Count     int            `json:"count"`
	Intervals []IntervalJSON `json:"intervals"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleFind(rw http.ResponseWriter, hr *http.Request) {
	iv, err := s.queryInterval(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	match, ok, err := s.index.Find(hr.Context(), iv)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	if !ok {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: %s", errNotFound, dataset.FormatInterval(s.index.Kind(), iv)))

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, s.toJSON(match))
}

func (s *Server) handleOverlaps(rw http.ResponseWriter, hr *http.Request) {
	iv, err := s.queryInterval(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	query := hr.URL.Query()

	anyOnly, err := parseBool(query.Get("any"))
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	if anyOnly {
		match, ok, anyErr := s.index.Any(hr.Context(), iv, query.Get("selector"))
		if anyErr != nil {
			s.writeError(hr.Context(), rw, anyErr)

			return
		}

		if !ok {
			s.writeList(hr.Context(), rw, nil)

			return
		}

		s.writeList(hr.Context(), rw, []index.Match{match})

		return
	}

	matches, err := s.index.Overlaps(hr.Context(), iv, query.Get("selector"))
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.writeList(hr.Context(), rw, matches)
}

func (s *Server) handlePoint(rw http.ResponseWriter, hr *http.Request) {
	at := hr.URL.Query().Get("at")
	if at == "" {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: at", errMissingParam))

		return
	}

	p, err := dataset.ParseEndpoint(s.index.Kind(), at)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	matches, err := s.index.Point(hr.Context(), p)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	s.writeList(hr.Context(), rw, matches)
}

func (s *Server) handleList(rw http.ResponseWriter, hr *http.Request) {
	s.writeList(hr.Context(), rw, s.index.Entries(hr.Context()))
}

func (s *Server) handlePut(rw http.ResponseWriter, hr *http.Request) {
	var req PutRequest

	dec := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: request body: %w", interval.ErrInvalidArgument, err))

		return
	}

	iv, err := s.index.ParseInterval(req.From, req.To)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	set := labels.Set(req.Labels)
	if _, err := labels.ValidatedSelectorFromSet(set); err != nil {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: labels: %w", interval.ErrInvalidArgument, err))

		return
	}

	inserted, err := s.index.Put(hr.Context(), iv, index.Value{Name: req.Name, Value: req.Value, Labels: set})
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}

	s.writeJSON(hr.Context(), rw, status, PutResponse{Inserted: inserted})
}

func (s *Server) handleDelete(rw http.ResponseWriter, hr *http.Request) {
	iv, err := s.queryInterval(hr)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	deleted, err := s.index.Delete(hr.Context(), iv)
	if err != nil {
		s.writeError(hr.Context(), rw, err)

		return
	}

	if !deleted {
		s.writeError(hr.Context(), rw, fmt.Errorf("%w: %s", errNotFound, dataset.FormatInterval(s.index.Kind(), iv)))

		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(rw http.ResponseWriter, hr *http.Request) {
	s.writeJSON(hr.Context(), rw, http.StatusOK, s.index.Stats())
}

// queryInterval reads the from and to query parameters.
func (s *Server) queryInterval(hr *http.Request) (interval.Interval[int64], error) {
	query := hr.URL.Query()

	for _, name := range []string{"from", "to"} {
		if query.Get(name) == "" {
			return interval.Interval[int64]{}, fmt.Errorf("%w: %s", errMissingParam, name)
		}
	}

	return s.index.ParseInterval(query.Get("from"), query.Get("to"))
}

func (s *Server) toJSON(m index.Match) IntervalJSON {
	kind := s.index.Kind()

	return IntervalJSON{
		From:   dataset.FormatEndpoint(kind, m.Interval.From()),
		To:     dataset.FormatEndpoint(kind, m.Interval.To()),
		Name:   m.Name,
		Value:  m.Value.Value,
		Labels: m.Labels,
	}
}

func (s *Server) writeList(ctx context.Context, rw http.ResponseWriter, matches []index.Match) {
	out := ListResponse{Count: len(matches), Intervals: make([]IntervalJSON, 0, len(matches))}
	for _, m := range matches {
		out.Intervals = append(out.Intervals, s.toJSON(m))
	}

	s.writeJSON(ctx, rw, http.StatusOK, out)
}

func (s *Server) writeError(ctx context.Context, rw http.ResponseWriter, err error) {
	status := statusFor(err)

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	s.logger.Log(ctx, level, "request failed", "status", status, "error", err)

	s.writeJSON(ctx, rw, status, ErrorResponse{Error: err.Error()})
}

// writeJSON encodes value as the response body.
func (s *Server) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errMissingParam), index.IsInvalidArgument(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: any must be a boolean", interval.ErrInvalidArgument)
	}

	return v, nil
}
