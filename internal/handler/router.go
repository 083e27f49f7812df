package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nomada-travel/nomada/backend/internal/handler/auth"
	"github.com/nomada-travel/nomada/backend/internal/handler/booking"
	"github.com/nomada-travel/nomada/backend/internal/handler/chat"
	flighthandler "github.com/nomada-travel/nomada/backend/internal/handler/flight"
	geohandler "github.com/nomada-travel/nomada/backend/internal/handler/geo"
	hotelhandler "github.com/nomada-travel/nomada/backend/internal/handler/hotel"
	paymenthandler "github.com/nomada-travel/nomada/backend/internal/handler/payment"
	"github.com/nomada-travel/nomada/backend/internal/handler/stream"
	"github.com/nomada-travel/nomada/backend/internal/handler/ws"
	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/middleware"
	accountservice "github.com/nomada-travel/nomada/backend/internal/service/account"
	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	flightservice "github.com/nomada-travel/nomada/backend/internal/service/flight"
	geoservice "github.com/nomada-travel/nomada/backend/internal/service/geo"
	hotelservice "github.com/nomada-travel/nomada/backend/internal/service/hotel"
	paymentservice "github.com/nomada-travel/nomada/backend/internal/service/payment"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
	"github.com/nomada-travel/nomada/backend/internal/store"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Deps carries the services the router needs. Accounts, orchestration and
// chat are always present; the vendor-backed services answer 503 from
// their handlers when unconfigured.
type Deps struct {
	Chat     *chatservice.Service
	Turns    *turn.Orchestrator
	Accounts *accountservice.Service
	Store    *store.Store
	Flights  *flightservice.Service
	Hotels   *hotelservice.Service
	Geo      *geoservice.Service
	Payments *paymentservice.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatHandler := chat.New(deps.Turns, deps.Chat)
	streamHandler := stream.New(deps.Turns)
	wsHandler := ws.New(deps.Turns)
	authHandler := auth.New(deps.Accounts)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		authHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}
			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("stream request failed")
				utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
			}
		})

		api.Get("/ws", wsHandler.HandleWebSocket)

		booking.New(deps.Store).RegisterRoutes(api, deps.Accounts)
		flighthandler.New(deps.Flights).RegisterRoutes(api, deps.Accounts)
		hotelhandler.New(deps.Hotels).RegisterRoutes(api, deps.Accounts)
		geohandler.New(deps.Geo).RegisterRoutes(api)
		paymenthandler.New(deps.Payments).RegisterRoutes(api, deps.Accounts)
	})

	return r
}
