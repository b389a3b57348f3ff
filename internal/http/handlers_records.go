package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"supcal/internal/core"
	applog "supcal/internal/log"
	"supcal/internal/records"
)

const (
	defaultOccurrences = 5
	maxListLimit       = 100
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	var f records.Filter
	if typ := r.URL.Query().Get("type"); typ != "" {
		t, err := core.ParseRecordType(typ)
		if err != nil {
			writeServiceError(w, r, "list_records", err)
			return
		}
		f.Type = t
	}

	recs, err := s.svc.Records.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, "list_records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(recs))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get_record", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecord(rec))
}

func (s *Server) handleCreateSimple(w http.ResponseWriter, r *http.Request) {
	var req simpleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create_simple", err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(w, r, "create_simple", err)
		return
	}
	rec, err := s.svc.Records.CreateSimple(r.Context(), in, s.now())
	if err != nil {
		writeServiceError(w, r, "create_simple", err)
		return
	}
	logChange(r, applog.OpCreate, rec)
	w.Header().Set("Location", "/api/v1/records/"+rec.ID)
	writeJSON(w, http.StatusCreated, toRecord(rec))
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create_payment", err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(w, r, "create_payment", err)
		return
	}
	rec, err := s.svc.Records.CreatePayment(r.Context(), in, s.now())
	if err != nil {
		writeServiceError(w, r, "create_payment", err)
		return
	}
	logChange(r, applog.OpCreate, rec)
	w.Header().Set("Location", "/api/v1/records/"+rec.ID)
	writeJSON(w, http.StatusCreated, toRecord(rec))
}

func (s *Server) handleUpdateSimple(w http.ResponseWriter, r *http.Request) {
	var req simpleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "update_simple", err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(w, r, "update_simple", err)
		return
	}
	rec, err := s.svc.Records.UpdateSimple(r.Context(), chi.URLParam(r, "id"), in, s.now())
	if err != nil {
		writeServiceError(w, r, "update_simple", err)
		return
	}
	logChange(r, applog.OpUpdate, rec)
	writeJSON(w, http.StatusOK, toRecord(rec))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "update_payment", err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(w, r, "update_payment", err)
		return
	}
	rec, err := s.svc.Records.UpdatePayment(r.Context(), chi.URLParam(r, "id"), in, s.now())
	if err != nil {
		writeServiceError(w, r, "update_payment", err)
		return
	}
	logChange(r, applog.OpUpdate, rec)
	writeJSON(w, http.StatusOK, toRecord(rec))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Records.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete_record", err)
		return
	}
	logChange(r, applog.OpDelete, core.Record{Base: core.Base{ID: id}})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count", defaultOccurrences, maxListLimit)
	if err != nil {
		writeServiceError(w, r, "occurrences", err)
		return
	}
	times, err := s.svc.Dashboard.Occurrences(r.Context(), chi.URLParam(r, "id"), s.now(), count)
	if err != nil {
		writeServiceError(w, r, "occurrences", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": times})
}
