// Package api assembles the HTTP router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/handlers"
	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/chat"
	"github.com/dvloznov/diane/internal/jobs"
	"github.com/dvloznov/diane/internal/store"
)

// Deps are the services behind the routes.
type Deps struct {
	Store       *store.Store
	Chat        *chat.Service
	Jobs        jobs.JobStore
	CORSOrigins []string
	Log         zerolog.Logger
}

// NewRouter returns the API handler with the middleware chain applied.
func NewRouter(d Deps) http.Handler {
	return newRouter(d.Store, d.Chat, d.Jobs, d.CORSOrigins, d.Log)
}

func newRouter(st *store.Store, svc handlers.ChatService, jobStore jobs.JobStore, origins []string, log zerolog.Logger) http.Handler {
	chatHandler := handlers.NewChatHandler(svc, st, log)
	accountsHandler := handlers.NewAccountsHandler(st, log)
	categoriesHandler := handlers.NewCategoriesHandler(st, log)
	transactionsHandler := handlers.NewTransactionsHandler(st, log)
	shoppingHandler := handlers.NewShoppingHandler(st, log)
	pricesHandler := handlers.NewPricesHandler(st, log)
	promptLogsHandler := handlers.NewPromptLogsHandler(st, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(origins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatHandler.PostMessage)
			r.Get("/history", chatHandler.History)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountsHandler.List)
			r.Post("/", accountsHandler.Create)
			r.Patch("/{id}", accountsHandler.Update)
			r.Delete("/{id}", accountsHandler.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoriesHandler.List)
			r.Post("/", categoriesHandler.Create)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactionsHandler.List)
			r.Post("/", transactionsHandler.Create)
		})
		r.Get("/stats/monthly", transactionsHandler.MonthlyStats)

		r.Route("/shopping-lists", func(r chi.Router) {
			r.Get("/", shoppingHandler.ListLists)
			r.Post("/", shoppingHandler.CreateList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", shoppingHandler.GetList)
				r.Patch("/", shoppingHandler.RenameList)
				r.Delete("/", shoppingHandler.DeleteList)
				r.Post("/activate", shoppingHandler.ActivateList)
				r.Post("/items", shoppingHandler.AddItems)
				r.Patch("/items/check", shoppingHandler.CheckItems)
				r.Patch("/items/{itemID}/toggle", shoppingHandler.ToggleItem)
				r.Patch("/items/{itemID}", shoppingHandler.RenameItem)
				r.Delete("/items/{itemID}", shoppingHandler.DeleteItem)
			})
		})

		r.Route("/product-prices", func(r chi.Router) {
			r.Get("/", pricesHandler.List)
			r.Post("/", pricesHandler.Create)
			r.Patch("/{id}", pricesHandler.Update)
			r.Delete("/{id}", pricesHandler.Delete)
		})

		r.Get("/prompt-logs", promptLogsHandler.List)

		if jobStore != nil {
			jobsHandler := handlers.NewJobsHandler(jobStore, log)
			r.Get("/jobs", jobsHandler.ListJobs)
			r.Get("/jobs/{id}", jobsHandler.GetJob)
		}
	})

	return r
}
