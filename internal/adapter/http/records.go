package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
	"github.com/couchcryptid/dengue-data-service/internal/pipeline"
)

// maxBodyBytes bounds record request bodies.
const maxBodyBytes = 1 << 16

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		page = n
	}

	out, err := s.records.Listing(q.Get("search"), page)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	rec, err := s.records.Create(r.Context(), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	rec, err := s.records.Edit(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Refresh(r.Context()); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "refreshed", "count": len(s.records.Records())})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"busy": s.records.Busy()}
	if err := s.records.LastError(); err != nil {
		body["lastError"] = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// decodeRecord reads a record form. Counts may be sent as JSON numbers or strings.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (domain.RecordInput, bool) {
	var body recordRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return domain.RecordInput{}, false
	}
	return body.input(), true
}

// writeDomainError maps the failure taxonomy onto status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": err.Error(),
			"field": verr.Field,
		})
	case errors.Is(err, domain.ErrValidationRejected):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPageOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		s.logger.Error("store unavailable", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusServiceUnavailable, "record store unavailable")
	default:
		s.logger.Error("request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type recordRequest struct {
	Location   looseString `json:"loc"`
	Region     looseString `json:"Region"`
	Cases      looseString `json:"cases"`
	Deaths     looseString `json:"deaths"`
	ReportDate looseString `json:"date"`
}

func (b recordRequest) input() domain.RecordInput {
	return domain.RecordInput{
		Location:   string(b.Location),
		Region:     string(b.Region),
		Cases:      string(b.Cases),
		Deaths:     string(b.Deaths),
		ReportDate: string(b.ReportDate),
	}
}

// looseString accepts a JSON string, number, or null.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number: %w", err)
		}
		*s = looseString(n.String())
	}
	return nil
}
