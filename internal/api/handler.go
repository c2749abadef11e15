package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/orhss/finagg/internal/domain"
	"github.com/orhss/finagg/internal/models"
	"github.com/orhss/finagg/internal/service"
	"github.com/orhss/finagg/internal/store"
)

var (
	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finagg_sync_runs_total",
		Help: "Sync runs processed, labeled by institution and outcome",
	}, []string{"institution", "status"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finagg_sync_duration_seconds",
		Help:    "Wall time of sync runs",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"institution"})

	recordsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finagg_records_reconciled_total",
		Help: "Transactions written by sync runs",
	}, []string{"institution", "outcome"})
)

type Handler struct {
	store    *store.Store
	sync     *service.SyncService
	mappings *service.MappingService
	log      zerolog.Logger
}

func NewHandler(st *store.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store:    st,
		sync:     service.NewSyncService(st, log),
		mappings: service.NewMappingService(st),
		log:      log,
	}
}

// Register wires all routes onto the router.
func (h *Handler) Register(r *mux.Router) {
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/sync/{institution}", h.RunSync).Methods("POST")
	v1.HandleFunc("/sync/history", h.GetSyncHistory).Methods("GET")
	v1.HandleFunc("/accounts", h.GetAccounts).Methods("GET")
	v1.HandleFunc("/accounts/{id}/transactions", h.GetAccountTransactions).Methods("GET")
	v1.HandleFunc("/accounts/{id}/balances", h.GetAccountBalances).Methods("GET")
	v1.HandleFunc("/transactions/{id}/category", h.SetUserCategory).Methods("PUT")
	v1.HandleFunc("/categories/totals", h.GetCategoryTotals).Methods("GET")
	v1.HandleFunc("/mappings/categories", h.GetCategoryMappings).Methods("GET")
	v1.HandleFunc("/mappings/categories", h.CreateCategoryMapping).Methods("POST")
	v1.HandleFunc("/mappings/categories/export", h.ExportMappings).Methods("GET")
	v1.HandleFunc("/mappings/categories/import", h.ImportMappings).Methods("POST")
	v1.HandleFunc("/mappings/categories/{id}", h.DeleteCategoryMapping).Methods("DELETE")
	v1.HandleFunc("/mappings/merchants", h.GetMerchantMappings).Methods("GET")
	v1.HandleFunc("/mappings/merchants", h.CreateMerchantMapping).Methods("POST")
	v1.HandleFunc("/mappings/merchants/suggestions", h.GetMerchantSuggestions).Methods("GET")
	v1.HandleFunc("/mappings/merchants/{id}", h.DeleteMerchantMapping).Methods("DELETE")
}

// RunSync accepts one institution's freshly fetched batch and reconciles it
// as a single atomic run.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	institution := mux.Vars(r)["institution"]
	timer := prometheus.NewTimer(syncDuration.WithLabelValues(institution))
	defer timer.ObserveDuration()

	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if req.SyncType == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "sync_type is required")
		return
	}

	result, err := h.sync.Run(r.Context(), institution, req)
	if err != nil {
		syncRunsTotal.WithLabelValues(institution, "failed").Inc()
		// The run is rolled back and audited; surface the failure result.
		respondWithJSON(w, http.StatusInternalServerError, result)
		return
	}

	syncRunsTotal.WithLabelValues(institution, "success").Inc()
	recordsReconciled.WithLabelValues(institution, "added").Add(float64(result.TransactionsAdded))
	recordsReconciled.WithLabelValues(institution, "updated").Add(float64(result.TransactionsUpdated))
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) GetSyncHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.store.ListSyncRuns(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, runs)
}

func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}
	txns, err := h.store.ListTransactionsByAccount(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, txns)
}

func (h *Handler) GetAccountBalances(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}
	balances, err := h.store.ListBalances(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, balances)
}

// SetUserCategory records a manual category override. Pass null to clear it.
func (h *Handler) SetUserCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var body struct {
		UserCategory *string `json:"user_category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	if err := h.store.SetUserCategory(r.Context(), id, body.UserCategory); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *Handler) GetCategoryTotals(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from", time.Time{})
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	to, err := parseDateParam(r, "to", time.Now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid to date")
		return
	}

	totals, err := h.store.CategoryTotals(r.Context(), from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, totals)
}

func (h *Handler) GetCategoryMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.store.ListCategoryMappings(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, mappings)
}

func (h *Handler) CreateCategoryMapping(w http.ResponseWriter, r *http.Request) {
	var m domain.CategoryMapping
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if m.Provider == "" || m.RawCategory == "" || m.UnifiedCategory == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "provider, raw_category and unified_category are required")
		return
	}
	if err := h.store.InsertCategoryMapping(r.Context(), &m); err != nil {
		respondWithError(w, http.StatusConflict, "Mapping already exists")
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeleteCategoryMapping(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid mapping id")
		return
	}
	if err := h.store.DeleteCategoryMapping(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Mapping not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMerchantMappings lists merchant rules in match order for the given
// provider; without a provider only global rules apply.
func (h *Handler) GetMerchantMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.store.ListMerchantMappings(r.Context(), r.URL.Query().Get("provider"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, mappings)
}

func (h *Handler) CreateMerchantMapping(w http.ResponseWriter, r *http.Request) {
	var m domain.MerchantMapping
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if m.Pattern == "" || m.UnifiedCategory == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "pattern and unified_category are required")
		return
	}
	if err := h.store.InsertMerchantMapping(r.Context(), &m); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeleteMerchantMapping(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid mapping id")
		return
	}
	if err := h.store.DeleteMerchantMapping(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Mapping not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMerchantSuggestions proposes merchant patterns extracted from the most
// frequent uncategorized descriptions.
func (h *Handler) GetMerchantSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	suggestions, err := h.mappings.SuggestMerchantPatterns(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, suggestions)
}

func (h *Handler) ExportMappings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.mappings.Export(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, rows)
}

func (h *Handler) ImportMappings(w http.ResponseWriter, r *http.Request) {
	overwrite := r.URL.Query().Get("overwrite") == "true"

	var rows []models.MappingRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	summary, err := h.mappings.Import(r.Context(), rows, overwrite)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func parseDateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", v)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
