// Package journal serves the delivery journal over HTTP.
package journal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	corejournal "github.com/kilianp07/factorysim/core/journal"
)

// NewHandler exposes journal records via GET /api/journal. Requests must
// carry "Authorization: Bearer <token>" when token is non-empty.
//
// Query parameters: start, end (RFC3339), cart_id, delivery_id, kind, action,
// limit. summary=1 returns per-cart totals instead of records.
func NewHandler(store corejournal.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var out any = records
		if r.URL.Query().Get("summary") == "1" {
			out = corejournal.Summarize(records)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (corejournal.Query, error) {
	v := r.URL.Query()
	q := corejournal.Query{
		CartID: v.Get("cart_id"),
		Kind:   v.Get("kind"),
		Action: v.Get("action"),
	}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("start: %w", err)
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("end: %w", err)
		}
	}
	if s := v.Get("delivery_id"); s != "" {
		if q.DeliveryID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return q, fmt.Errorf("delivery_id: %w", err)
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, fmt.Errorf("limit: %w", err)
		}
	}
	return q, nil
}
