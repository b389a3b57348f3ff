package http

import (
	"fmt"
	"net/http"
	"strings"

	"supcal/internal/core"
	"supcal/internal/services"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Dashboard(r.Context(), s.now())
	if err != nil {
		writeServiceError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{
		GeneratedAt:     d.GeneratedAt,
		TopPayments:     toRecords(d.TopPayments),
		UpcomingSimples: toUpcoming(d.UpcomingSimples),
		Summary:         toSummary(d.Summary),
	})
}

func (s *Server) handleTopPayments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", s.svc.Dashboard.Limits().Top, maxListLimit)
	if err != nil {
		writeServiceError(w, r, "top_payments", err)
		return
	}
	recs, err := s.svc.Dashboard.TopPayments(r.Context(), s.now(), limit)
	if err != nil {
		writeServiceError(w, r, "top_payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(recs))
}

func (s *Server) handleUpcomingSimples(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", s.svc.Dashboard.Limits().Upcoming, maxListLimit)
	if err != nil {
		writeServiceError(w, r, "upcoming_simples", err)
		return
	}
	entries, err := s.svc.Dashboard.UpcomingSimples(r.Context(), s.now(), limit)
	if err != nil {
		writeServiceError(w, r, "upcoming_simples", err)
		return
	}
	writeJSON(w, http.StatusOK, toUpcoming(entries))
}

func (s *Server) handleUpcomingPayments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", s.svc.Dashboard.Limits().Upcoming, maxListLimit)
	if err != nil {
		writeServiceError(w, r, "upcoming_payments", err)
		return
	}
	entries, err := s.svc.Dashboard.UpcomingPayments(r.Context(), s.now(), limit)
	if err != nil {
		writeServiceError(w, r, "upcoming_payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toUpcoming(entries))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := summaryFilter(r)
	if err != nil {
		writeServiceError(w, r, "summary", err)
		return
	}
	sum, err := s.svc.Dashboard.Summary(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(sum))
}

// summaryFilter reads ?currency=&from=&to=. An empty currency means all.
func summaryFilter(r *http.Request) (services.SummaryFilter, error) {
	var f services.SummaryFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("currency")); raw != "" {
		c, err := core.ParseCurrency(raw)
		if err != nil {
			return f, err
		}
		f.Currency = c
	}
	from, err := queryTime(r, "from")
	if err != nil {
		return f, err
	}
	to, err := queryTime(r, "to")
	if err != nil {
		return f, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return f, fmt.Errorf("%w: from must be before to", errBadRequest)
	}
	f.From, f.To = from, to
	return f, nil
}
