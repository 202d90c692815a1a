package gateway

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"rinha-backend-golang/internal/models"
)

// handleSummary groups persisted rows by service_used, summing amount and
// counting rows, with missing groups defaulting to zero. from/to are
// optional RFC3339 bounds on requested_at.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, "invalid from/to", http.StatusBadRequest)
		return
	}

	rows, err := s.db.Query(r.Context(), `
		SELECT service_used, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments
		WHERE ($1::timestamptz IS NULL OR requested_at >= $1)
		  AND ($2::timestamptz IS NULL OR requested_at <= $2)
		GROUP BY service_used`, from, to)
	if err != nil {
		s.log.WithError(err).Error("gateway: summary query failed")
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	resp := models.PaymentSummaryResponse{
		Default:  models.Summary{TotalAmount: decimal.Zero},
		Fallback: models.Summary{TotalAmount: decimal.Zero},
	}
	for rows.Next() {
		var service string
		var count int64
		var amount decimal.Decimal
		if err := rows.Scan(&service, &count, &amount); err != nil {
			s.log.WithError(err).Error("gateway: summary row scan failed")
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		switch models.Processor(service) {
		case models.Default:
			resp.Default = models.Summary{TotalRequests: count, TotalAmount: amount}
		case models.Fallback:
			resp.Fallback = models.Summary{TotalRequests: count, TotalAmount: amount}
		}
	}
	if err := rows.Err(); err != nil {
		s.log.WithError(err).Error("gateway: summary rows error")
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if _, err := s.db.Exec(r.Context(), "TRUNCATE payments"); err != nil {
		s.log.WithError(err).Error("gateway: purge failed")
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func parseRange(r *http.Request) (from, to *time.Time, err error) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}

// chmodSocket applies permission bits to a freshly bound Unix-domain-socket
// path. net.ListenUnix does not take a mode, so both the worker's receiver
// and the gateway's listen socket fix it up after bind, matching the
// original implementation's explicit set_permissions call.
func chmodSocket(path string, mode os.FileMode) error {
	return os.Chmod(path, mode)
}
