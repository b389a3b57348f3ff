package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		if err := s.svc.Health(r.Context()); err != nil {
			logError(r, "health", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Catalog.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, "list_categories", err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategory(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create_category", err)
		return
	}
	c, err := s.svc.Catalog.CreateCategory(r.Context(), req.Name, req.Direction, req.Color, s.now())
	if err != nil {
		writeServiceError(w, r, "create_category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategory(c))
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.svc.Catalog.PaymentMethods(r.Context())
	if err != nil {
		writeServiceError(w, r, "list_payment_methods", err)
		return
	}
	out := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, toPaymentMethod(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create_payment_method", err)
		return
	}
	m, err := s.svc.Catalog.CreatePaymentMethod(r.Context(), req.Name, s.now())
	if err != nil {
		writeServiceError(w, r, "create_payment_method", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentMethod(m))
}

// handleCalendarFeed serves the iCalendar document to subscribers holding
// the feed token. Without a configured token the feed does not exist.
func (s *Server) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if s.svc.Feed == nil || s.opts.FeedToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.FeedToken)) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	body, err := s.svc.Feed.Render(r.Context())
	if err != nil {
		writeServiceError(w, r, "calendar_feed", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="supcal.ics"`)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
