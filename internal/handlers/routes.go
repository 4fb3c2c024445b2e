package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"piggybank/internal/security"
	"piggybank/internal/service"
)

// Services are the application services the HTTP layer calls
type Services struct {
	Auth        *service.AuthService
	KidSessions *service.KidSessionManager
	Kids        *service.KidService
	Ledger      *service.LedgerService
	Chat        *service.ChatService
	Rewards     *service.RewardService
}

// RouterOptions configures NewRouter
type RouterOptions struct {
	OAuthProviders       map[string]OAuthProvider
	OAuthRedirectBaseURL string
	UploadMaxSize        int64
	// PINLimiter throttles kid sign-in attempts per client IP. Nil disables it.
	PINLimiter *security.RateLimiter
}

// NewRouter builds the HTTP handler for the API
func NewRouter(log zerolog.Logger, svc Services, opts RouterOptions) http.Handler {
	middleware := NewMiddleware(svc.Auth, svc.KidSessions)
	authHandler := NewAuthHandler(svc.Auth, opts.OAuthProviders, opts.OAuthRedirectBaseURL)
	kidHandler := NewKidHandler(svc.KidSessions, svc.Ledger, svc.Rewards, svc.Chat)
	parentHandler := NewParentHandler(svc.Kids, opts.UploadMaxSize)
	transactionHandler := NewTransactionHandler(svc.Ledger)
	chatHandler := NewChatHandler(svc.Chat)
	rewardHandler := NewRewardHandler(svc.Rewards)

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /auth/providers", authHandler.Providers)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)

	// Kid session
	var createKidSession http.Handler = http.HandlerFunc(kidHandler.CreateSession)
	if opts.PINLimiter != nil {
		createKidSession = opts.PINLimiter.Middleware(createKidSession)
	}
	mux.HandleFunc("GET /api/kid-session", kidHandler.GetSession)
	mux.Handle("POST /api/kid-session", createKidSession)
	mux.HandleFunc("DELETE /api/kid-session", kidHandler.DeleteSession)

	// Kid mode
	mux.HandleFunc("GET /api/kid/rewards", middleware.RequireKid(kidHandler.ListRewards))
	mux.HandleFunc("POST /api/kid/rewards/{id}/claim", middleware.RequireKid(kidHandler.ClaimReward))
	mux.HandleFunc("POST /api/kid/savings-message", middleware.RequireKid(kidHandler.SavingsMessage))

	// Parent routes
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /api/kids", middleware.RequireAuth(parentHandler.ListKids))
	mux.HandleFunc("POST /api/kids", middleware.RequireAuth(parentHandler.CreateKid))
	mux.HandleFunc("PUT /api/kids/{id}/pin", middleware.RequireAuth(parentHandler.SetPIN))
	mux.HandleFunc("POST /api/kids/{id}/pin/regenerate", middleware.RequireAuth(parentHandler.RegeneratePIN))
	mux.HandleFunc("DELETE /api/kids/{id}", middleware.RequireAuth(parentHandler.DeleteKid))
	mux.HandleFunc("POST /api/kids/{id}/avatar", middleware.RequireAuth(parentHandler.UploadAvatar))

	mux.HandleFunc("GET /api/transactions", middleware.RequireAuth(transactionHandler.List))
	mux.HandleFunc("POST /api/transactions", middleware.RequireAuth(transactionHandler.Create))

	mux.HandleFunc("POST /api/chat", middleware.RequireAuth(chatHandler.Chat))
	mux.HandleFunc("POST /api/chores/suggest", middleware.RequireAuth(chatHandler.SuggestChore))

	mux.HandleFunc("GET /api/rewards", middleware.RequireAuth(rewardHandler.List))
	mux.HandleFunc("POST /api/rewards", middleware.RequireAuth(rewardHandler.Create))
	mux.HandleFunc("POST /api/rewards/claims/{id}/approve", middleware.RequireAuth(rewardHandler.ApproveClaim))
	mux.HandleFunc("POST /api/rewards/claims/{id}/reject", middleware.RequireAuth(rewardHandler.RejectClaim))

	return Logging(log, Recovery(mux))
}
