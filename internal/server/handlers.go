//-------------------------------------------------------------------------
//
// Retail BI Backend
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dwhouse/retail-bi/internal/logging"
	"github.com/dwhouse/retail-bi/internal/reporting"
)

type handler struct {
	store Store
}

// envelope is the success wrapper the dashboard client expects.
type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Dashboard(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Dashboard query failed")
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: d})
}

func (h *handler) products(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}

	result, err := h.store.Products(r.Context(), search, page)
	if err != nil {
		logging.Error().Err(err).Msg("Product listing failed")
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// transactionRequest uses pointers so absent fields are distinguishable
// from zero values.
type transactionRequest struct {
	ProductID *int64   `json:"product_id"`
	Quantity  *int     `json:"quantity"`
	Sales     *float64 `json:"sales"`
}

func (h *handler) transaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.ProductID == nil || req.Quantity == nil || req.Sales == nil {
		writeError(w, http.StatusUnprocessableEntity, "product_id, quantity and sales are required")
		return
	}
	if *req.Quantity < 1 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must be at least 1")
		return
	}

	exists, err := h.store.ProductExists(r.Context(), *req.ProductID)
	if err != nil {
		logging.Error().Err(err).Msg("Product check failed")
		writeError(w, http.StatusInternalServerError, "failed to validate product")
		return
	}
	if !exists {
		writeError(w, http.StatusUnprocessableEntity, "product does not exist")
		return
	}

	tx := reporting.Transaction{
		ProductID: *req.ProductID,
		Quantity:  *req.Quantity,
		Sales:     *req.Sales,
	}
	if err := h.store.SaveTransaction(r.Context(), tx); err != nil {
		logging.Error().Err(err).Msg("Transaction insert failed")
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "transaction saved",
	})
}
