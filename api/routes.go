package api

import (
	"net/http"

	"github.com/0xcafe-io/iz"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

var corsConf = cors.New(cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	AllowedHeaders:   []string{"Authorization", "Content-Type", TraceIDHeader},
	ExposedHeaders:   []string{TraceIDHeader},
	AllowCredentials: true,
})

func NewRouter(api *Api) http.Handler {
	server := http.NewServeMux()

	// AUTH ENDPOINTS.
	server.HandleFunc("POST /auth/register", iz.Bind(api.RegisterHandler)) // Create account, returns token
	server.HandleFunc("POST /auth/login", iz.Bind(api.LoginHandler))       // Login, returns token
	server.HandleFunc("GET /auth/me", iz.Bind(api.MeHandler))              // Profile of the token owner

	// EXPENSE ENDPOINTS.
	server.HandleFunc("POST /expenses", iz.Bind(api.CreateExpenseHandler))                 // Create Expense
	server.HandleFunc("GET /expenses", iz.Bind(api.ListExpensesHandler))                   // Get Expenses with filters
	server.HandleFunc("GET /expenses/recent", iz.Bind(api.RecentExpensesHandler))          // Last 5 expenses
	server.HandleFunc("GET /expenses/summary/monthly", iz.Bind(api.MonthlySummaryHandler)) // Monthly totals per category
	server.HandleFunc("GET /expenses/{id}", iz.Bind(api.GetExpenseHandler))                // Get Expense by ID
	server.HandleFunc("PATCH /expenses/{id}", iz.Bind(api.UpdateExpenseHandler))           // Partial update
	server.HandleFunc("DELETE /expenses/{id}", iz.Bind(api.DeleteExpenseHandler))          // Delete Expense

	server.HandleFunc("GET /health", iz.Bind(api.HealthHandler))

	return corsConf.Handler(TraceRequests(middleware.Recoverer(server)))
}
