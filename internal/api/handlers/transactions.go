package handlers

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/store"
)

// TransactionsHandler handles transaction and statistics endpoints.
type TransactionsHandler struct {
	store TransactionStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log, now: time.Now}
}

// List handles GET /api/transactions?limit=&year=&month=
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", store.DefaultTransactionLimit, 1, store.MaxTransactionLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := queryInt(r, "year", 0, 1, 9999)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryInt(r, "month", 0, 1, 12)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.store.ListTransactions(r.Context(), store.TransactionFilter{Limit: limit, Year: year, Month: month})
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// Create handles POST /api/transactions. A missing tx_date means today.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		CategoryID  int64   `json:"category_id"`
		AccountID   *int64  `json:"account_id"`
		TxDate      string  `json:"tx_date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	txDate := civil.DateOf(h.now())
	if req.TxDate != "" {
		d, err := civil.ParseDate(req.TxDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "tx_date must be YYYY-MM-DD")
			return
		}
		txDate = d
	}

	tx, err := h.store.CreateTransaction(r.Context(), domain.NewTransaction{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		TxDate:      txDate,
	})
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, tx)
}

// MonthlyStats handles GET /api/stats/monthly?year=&month=. Missing values
// default to the current year and month.
func (h *TransactionsHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, err := queryInt(r, "year", now.Year(), 1, 9999)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryInt(r, "month", int(now.Month()), 1, 12)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.store.MonthlySpending(r.Context(), year, month)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to compute monthly spending")
		return
	}
	if stats.ByCategory == nil {
		stats.ByCategory = []domain.CategoryTotal{}
	}
	middleware.WriteJSON(w, http.StatusOK, stats)
}
