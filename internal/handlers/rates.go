package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/models"
)

// getRates returns the current and previous per-gram rate for each grade.
// Monetary values ride as decimal strings end to end.
func (r *Router) getRates(w http.ResponseWriter, req *http.Request) {
	var rows []models.MetalRate
	if err := r.db.Order("grade").Find(&rows).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load rates")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rates": rows})
}

// OverrideRateRequest is a manual per-grade rate write
type OverrideRateRequest struct {
	Grade models.MetalGrade `json:"grade"`
	Rate  decimal.Decimal   `json:"rate"`
}

// overrideRate manually sets one grade's rate
func (r *Router) overrideRate(w http.ResponseWriter, req *http.Request) {
	var body OverrideRateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Grade == "" || !body.Rate.IsPositive() {
		respondError(w, http.StatusBadRequest, "grade and a positive rate are required")
		return
	}

	if err := r.scheduler.OverrideRate(body.Grade, body.Rate); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to write rate")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"grade": body.Grade,
		"rate":  body.Rate,
	})
}

// getSyncConfig returns the scheduler configuration
func (r *Router) getSyncConfig(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.scheduler.Config())
}

// SyncConfigRequest mirrors the scheduler configuration
type SyncConfigRequest struct {
	Interval int     `json:"interval"` // hours, 0 disables periodic sync
	Premium  float64 `json:"premium"`  // retail premium percent
}

// setSyncConfig updates interval and premium, restarting the timer
func (r *Router) setSyncConfig(w http.ResponseWriter, req *http.Request) {
	var body SyncConfigRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Premium < 0 || body.Premium > 100 {
		respondError(w, http.StatusBadRequest, "premium must be between 0 and 100")
		return
	}

	r.scheduler.Configure(body.Interval, body.Premium)
	respondJSON(w, http.StatusOK, r.scheduler.Config())
}

// syncNow triggers an on-demand rate sync
func (r *Router) syncNow(w http.ResponseWriter, req *http.Request) {
	premium := r.scheduler.Config().RetailPremiumPct

	snapshot, err := r.scheduler.SyncNow(req.Context(), premium)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Rate sync failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"rates":   snapshot,
	})
}
