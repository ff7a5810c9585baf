// Package handlers provides the HTTP request handlers: question answering,
// raw ranked search, corpus browsing, and health checks.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medinfo/medicines-api/interfaces"
	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/medicines/entities"
	"github.com/medinfo/medicines-api/orchestrator"
	"github.com/medinfo/medicines-api/scheduler"
	"github.com/medinfo/medicines-api/search"
	"github.com/medinfo/medicines-api/validation"
)

// RespondWithJSON writes a JSON response.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error payload.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// Ask answers a free-text question through the retrieval orchestrator.
func Ask(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var question orchestrator.Question
		if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := validation.ValidateQuestion(question.Text); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		answer, err := orch.Ask(r.Context(), question)
		if err != nil {
			if errors.Is(err, search.ErrInvalidArgument) {
				RespondWithError(w, http.StatusBadRequest, err.Error())
				return
			}
			logging.Error("Question processing failed", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to process question")
			return
		}

		RespondWithJSON(w, http.StatusOK, answer)
	}
}

// SearchDocuments returns the raw ranked matches for a query, without QA or
// translation enrichment.
func SearchDocuments(store interfaces.DataStore, ranker search.Ranker, defaultK int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := chi.URLParam(r, "query")

		k := defaultK
		if kParam := r.URL.Query().Get("k"); kParam != "" {
			parsed, err := strconv.Atoi(kParam)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "Invalid k parameter")
				return
			}
			k = parsed
		}

		idx := store.GetDocumentIndex()
		if idx == nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Corpus not loaded yet")
			return
		}

		matches, err := ranker.Rank(r.Context(), query, idx, k)
		switch {
		case err == nil:
		case errors.Is(err, search.ErrInvalidArgument):
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, search.ErrEmptyCorpus):
			RespondWithError(w, http.StatusNotFound, "Corpus is empty")
			return
		default:
			logging.Error("Search failed", "error", err, "query", query)
			RespondWithError(w, http.StatusServiceUnavailable, "Search is unavailable")
			return
		}

		type result struct {
			MedicineID int     `json:"medicineId"`
			Score      float64 `json:"score"`
		}
		results := make([]result, 0, len(matches))
		for _, m := range matches {
			results = append(results, result{MedicineID: m.Document.OwnerID, Score: m.Score})
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}

// ServeAllMedicines returns the full normalized corpus.
func ServeAllMedicines(store interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, store.GetMedicines())
	}
}

// ServePagedMedicines returns one page of the corpus.
func ServePagedMedicines(store interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber := chi.URLParam(r, "pageNumber")
		page, err := strconv.Atoi(pageNumber)
		if err != nil || page < 1 {
			logging.Warn("Unusual user input", "pageNumber", pageNumber)
			RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}

		medicines := store.GetMedicines()
		pageSize := 10
		start := (page - 1) * pageSize
		end := start + pageSize

		if start >= len(medicines) {
			RespondWithError(w, http.StatusNotFound, "Page not found")
			return
		}

		if end > len(medicines) {
			end = len(medicines)
		}

		totalItems := len(medicines)
		maxPage := (totalItems + pageSize - 1) / pageSize

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"data":       medicines[start:end],
			"page":       page,
			"pageSize":   pageSize,
			"totalItems": totalItems,
			"maxPage":    maxPage,
		})
	}
}

// FindMedicine searches medicines by generic or brand name substring.
func FindMedicine(store interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing search term")
			return
		}

		lowered := strings.ToLower(name)

		var results []entities.Medicine
		for _, med := range store.GetMedicines() {
			if medicineNameContains(med, lowered) {
				results = append(results, med)
			}
		}

		if len(results) == 0 {
			RespondWithError(w, http.StatusNotFound, "No medicines found")
			return
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}

func medicineNameContains(med entities.Medicine, lowered string) bool {
	for _, g := range med.GenericNames {
		if strings.Contains(strings.ToLower(g.Name), lowered) {
			return true
		}
	}
	for _, b := range med.Brands {
		if strings.Contains(strings.ToLower(b.Brand.Name), lowered) {
			return true
		}
	}
	return false
}

// FindMedicineByID finds a medicine by its id.
func FindMedicineByID(store interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validation.ValidateID(chi.URLParam(r, "id"))
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		med, exists := store.GetMedicinesMap()[id]
		if !exists {
			RespondWithError(w, http.StatusNotFound, "Medicine not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, med)
	}
}

// HealthCheck reports service and corpus status.
func HealthCheck(store interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dimension := 0
		if idx := store.GetDocumentIndex(); idx != nil {
			dimension = idx.Dimension()
		}

		RespondWithJSON(w, http.StatusOK, map[string]any{
			"status":          "healthy",
			"uptime":          time.Since(store.GetServerStartTime()).Round(time.Second).String(),
			"medicine_count":  len(store.GetMedicines()),
			"index_dimension": dimension,
			"last_updated":    store.GetLastUpdated().Format(time.RFC3339),
			"next_update":     scheduler.CalculateNextUpdate().Format(time.RFC3339),
			"updating":        store.IsUpdating(),
		})
	}
}
