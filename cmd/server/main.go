package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"piggybank/internal/ai"
	"piggybank/internal/config"
	"piggybank/internal/database"
	"piggybank/internal/handlers"
	"piggybank/internal/logger"
	"piggybank/internal/repository"
	"piggybank/internal/security"
	"piggybank/internal/service"
	"piggybank/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	kidRepo := repository.NewKidRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	// Optional integrations
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize email service")
	}
	var notifier service.TransactionNotifier
	if emailService.IsEnabled() {
		notifier = service.NewTransactionEmailNotifier(userRepo, emailService)
	}

	var llm ai.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.AIModel)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
		}
		llm = gemini
		log.Info().Str("model", cfg.AIModel).Msg("AI assistant enabled")
	} else {
		log.Info().Msg("AI assistant disabled: GEMINI_API_KEY not configured")
	}

	var avatars service.AvatarStorage
	if cfg.GCSAvatarBucket != "" {
		store, err := storage.NewAvatarStore(ctx, cfg.GCSAvatarBucket, cfg.GCSCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize avatar storage")
		}
		defer store.Close()
		avatars = store
		log.Info().Str("bucket", cfg.GCSAvatarBucket).Msg("Avatar storage enabled")
	}

	signer := newKidTokenSigner(cfg.KidSessionSecret, log)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration, log)
	ledger := service.NewLedgerService(db, kidRepo, txRepo, notifier, log)
	services := handlers.Services{
		Auth:        authService,
		KidSessions: service.NewKidSessionManager(kidRepo, signer, log),
		Kids:        service.NewKidService(kidRepo, avatars, log),
		Ledger:      ledger,
		Chat:        service.NewChatService(db, chatRepo, kidRepo, llm, log),
		Rewards:     service.NewRewardService(db, rewardRepo, ledger, log),
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	handler := handlers.NewRouter(log, services, handlers.RouterOptions{
		OAuthProviders:       oauthProviders,
		OAuthRedirectBaseURL: cfg.OAuthRedirectBaseURL,
		UploadMaxSize:        cfg.UploadMaxSize,
		PINLimiter:           security.NewRateLimiter(ctx, cfg.PINRateLimit, time.Minute).TrustProxyHeaders(cfg.TrustProxyHeaders),
	})

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go authService.RunSessionCleanup(ctx, time.Hour)

	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	if err := ledger.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Gave up waiting for transaction notifications")
	}
}

// newKidTokenSigner uses the configured secret, or a random one that does not survive restarts
func newKidTokenSigner(secret string, log zerolog.Logger) *security.KidTokenSigner {
	if secret == "" {
		generated, err := security.GenerateSecret()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate kid session secret")
		}
		log.Warn().Msg("KID_SESSION_SECRET not set; kid sessions will not survive a restart")
		secret = generated
	}

	signer, err := security.NewKidTokenSigner([]byte(secret))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create kid session signer")
	}
	return signer
}
