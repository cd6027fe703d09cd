package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/config"
	"github.com/voteflow/voteflow-api/internal/domain/election"
	"github.com/voteflow/voteflow-api/internal/domain/ledger"
	"github.com/voteflow/voteflow-api/internal/domain/payment"
	"github.com/voteflow/voteflow-api/internal/domain/tally"
	"github.com/voteflow/voteflow-api/internal/domain/voting"
	"github.com/voteflow/voteflow-api/internal/middleware"
	"github.com/voteflow/voteflow-api/internal/pkg/database"
	"github.com/voteflow/voteflow-api/internal/pkg/jwt"
	"github.com/voteflow/voteflow-api/internal/pkg/logger"
	pkgresponse "github.com/voteflow/voteflow-api/internal/pkg/response"
	"github.com/voteflow/voteflow-api/internal/pkg/storage"
	"github.com/voteflow/voteflow-api/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting VoteFlow API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.ApplySchema(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		// Redis only backs the tally cache, so the API degrades instead of
		// refusing to start.
		log.Warn().Err(err).Msg("Redis unavailable, tally cache disabled")
		redisClient = nil
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	var archive *storage.ArchiveStore
	if cfg.ArchiveEnabled {
		archive, err = storage.NewArchiveStore(storage.Config{
			Endpoint:  cfg.ArchiveEndpoint,
			Region:    cfg.ArchiveRegion,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
			Bucket:    cfg.ArchiveBucket,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create archive store")
		}
	}

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	electionRepo := election.NewRepository(db)
	votingRepo := voting.NewRepository(db)
	tallyRepo := tally.NewRepository(db)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo)
	paymentService := payment.NewService(ledgerRepo, paymentRepo)
	creditGate := election.NewGate(ledgerRepo, cfg.CreditSourceOrder)
	electionService := election.NewService(electionRepo, ledgerRepo, creditGate)
	votingService := voting.NewService(votingRepo, electionRepo)
	tallyCache := tally.NewCache(redisClient, cfg.TallyTTL)
	tallyService := tally.NewService(tallyRepo, electionRepo, tallyCache)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	paymentHandler := payment.NewHandler(paymentService, ledgerService, cfg.MomoWebhookSecret)
	electionHandler := election.NewHandler(electionService)
	votingHandler := voting.NewHandler(votingService)
	tallyHandler := tally.NewHandler(tallyService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Background jobs ----------
	scheduler := worker.NewScheduler(electionRepo, tallyService, archive)
	if err := scheduler.Start(cfg.CloseSweepSpec, cfg.ReconcileSweepSpec); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer scheduler.Stop()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
		r.Mount("/credits", ledgerHandler.Routes(authMiddleware))

		r.Route("/elections", func(r chi.Router) {
			// Voter-facing endpoints carry no JWT; the voter roll is the
			// authorization.
			r.Post("/{id}/votes", votingHandler.Cast)
			r.Get("/{id}/candidates", votingHandler.ListCandidates)
			r.Get("/{id}/results", tallyHandler.Results)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Get("/{id}/reconciliation", tallyHandler.Reconciliation)
				r.Post("/", electionHandler.Create)
				r.Get("/", electionHandler.List)
				r.Get("/{id}", electionHandler.Get)
				r.Post("/{id}/activate", electionHandler.Activate)
				r.Post("/{id}/cancel", electionHandler.Cancel)
				r.Post("/{id}/candidates", votingHandler.RegisterCandidate)
				r.Post("/{id}/voters", votingHandler.ImportVoters)
				r.Post("/{id}/reconciliation/repair", tallyHandler.Repair)
			})
		})
	})

	r.Mount("/webhooks", paymentHandler.WebhookRoutes())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
