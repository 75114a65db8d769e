// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"parkledger/internal/api/handler"
)

// NewRouter sets up and returns the HTTP router.
func NewRouter(
	sessionHandler *handler.SessionHandler,
	settlementHandler *handler.SettlementHandler,
	walletHandler *handler.WalletHandler,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Parking-session lifecycle and settlement
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.RegisterEntry)
		r.Get("/{sessionID}", sessionHandler.GetSession)
		r.Post("/{sessionID}/exit", sessionHandler.RegisterExit)
		r.Post("/{sessionID}/settle", settlementHandler.Settle)
	})

	// Gate lookup for the OPEN session of a plate
	r.Get("/lots/{lotID}/vehicles/{plate}/session", sessionHandler.FindActiveByVehicle)

	// Wallet operations and read-only projections
	r.Route("/wallets", func(r chi.Router) {
		r.Post("/{userID}/topup", walletHandler.TopUp)
		r.Get("/{userID}", walletHandler.GetWallet)
		r.Get("/{userID}/transactions", walletHandler.GetStatement)
	})

	return r
}
