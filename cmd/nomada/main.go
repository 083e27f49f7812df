package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nomada-travel/nomada/backend/internal/config"
	"github.com/nomada-travel/nomada/backend/internal/handler"
	"github.com/nomada-travel/nomada/backend/internal/log"
	"github.com/nomada-travel/nomada/backend/internal/notify"
	"github.com/nomada-travel/nomada/backend/internal/repl"
	accountservice "github.com/nomada-travel/nomada/backend/internal/service/account"
	agentservice "github.com/nomada-travel/nomada/backend/internal/service/agent"
	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	flightservice "github.com/nomada-travel/nomada/backend/internal/service/flight"
	geoservice "github.com/nomada-travel/nomada/backend/internal/service/geo"
	hotelservice "github.com/nomada-travel/nomada/backend/internal/service/hotel"
	paymentservice "github.com/nomada-travel/nomada/backend/internal/service/payment"
	"github.com/nomada-travel/nomada/backend/internal/service/responder"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
	"github.com/nomada-travel/nomada/backend/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "nomada",
		Short:         "Nomada travel assistant backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), replCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			router := handler.NewRouter(handler.Deps{
				Chat:     app.chat,
				Turns:    app.turns,
				Accounts: app.accounts,
				Store:    app.store,
				Flights:  app.flights,
				Hotels:   app.hotels,
				Geo:      app.geo,
				Payments: app.payments,
			})
			return startServer(ctx, app.cfg.Server, router)
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat with the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			return repl.New(app.turns, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
		},
	}
}

// app holds the wired service graph shared by the serve and repl commands.
type app struct {
	cfg      *config.Config
	store    *store.Store
	chat     *chatservice.Service
	turns    *turn.Orchestrator
	accounts *accountservice.Service
	flights  *flightservice.Service
	hotels   *hotelservice.Service
	geo      *geoservice.Service
	payments *paymentservice.Service
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close store")
		}
	}
}

func buildApp(ctx context.Context) (*app, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log.Configure(cfg.Log.Level, cfg.Log.Pretty)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	mailer := notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	var notifier flightservice.Notifier
	if mailer.Configured() {
		notifier = mailer
	}

	flights := flightservice.NewService(
		flightservice.NewDuffelClient(cfg.Duffel.BaseURL, cfg.Duffel.Token), st, notifier)
	hotels := hotelservice.NewService(
		hotelservice.NewHotelbedsClient(cfg.Hotelbeds.BaseURL, cfg.Hotelbeds.APIKey, cfg.Hotelbeds.Secret), st)
	geo := geoservice.NewService(
		geoservice.NewNominatimClient(""),
		geoservice.NewOverpassClient(""),
		geoservice.NewGoogleClient("", cfg.Google.APIKey))
	payments := paymentservice.NewService(st, cfg.Stripe.SecretKey)
	accounts := accountservice.NewService(st, cfg.Auth.JWTSecret)

	chat := chatservice.NewService()
	resp := responder.NewService()
	if cfg.Demo.ScriptPath != "" {
		if err := resp.LoadScript(cfg.Demo.ScriptPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.Demo.ScriptPath).Msg("reply script not loaded, using defaults")
		} else {
			// WatchScript blocks until the context ends.
			go func(path string) {
				if err := resp.WatchScript(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn().Err(err).Str("path", path).Msg("reply script watch failed")
				}
			}(cfg.Demo.ScriptPath)
		}
	}

	var liveAgent turn.Agent
	if cfg.OpenAI.Enabled() {
		chatModel, err := cfg.OpenAI.NewChatModel(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("chat model unavailable, staying in demo mode")
		} else {
			agent, err := agentservice.NewService(ctx, chatModel, agentservice.NewRegistry(flights, hotels, geo))
			if err != nil {
				log.Warn().Err(err).Msg("agent unavailable, staying in demo mode")
			} else {
				liveAgent = agent
				log.Info().Str("model", cfg.OpenAI.Model).Msg("agent mode enabled")
			}
		}
	} else {
		log.Info().Msg("no chat model configured, replies come from the demo table")
	}

	delay := time.Duration(cfg.Demo.ReplyDelayMillis) * time.Millisecond
	turns := turn.NewOrchestrator(chat, resp, liveAgent, delay)

	return &app{
		cfg:      cfg,
		store:    st,
		chat:     chat,
		turns:    turns,
		accounts: accounts,
		flights:  flights,
		hotels:   hotels,
		geo:      geo,
		payments: payments,
	}, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          log.StdErrorLogger(),
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("nomada backend listening")
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
