package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/security"
)

// AuthService handles parent authentication
type AuthService struct {
	userRepo        *repository.UserRepository
	sessionDuration time.Duration
	log             zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, sessionDuration time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		sessionDuration: sessionDuration,
		log:             log,
	}
}

// OAuthLogin finds or creates the parent for a provider identity and opens a session
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	if name == "" && email != "" {
		name = strings.Split(email, "@")[0]
	}

	user, err := s.userRepo.GetUserByProvider(ctx, provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		user, err = s.userRepo.CreateUser(ctx, provider, subject, email, name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
		}
		s.log.Info().Str("user_id", user.ID).Str("provider", provider).Msg("Created parent account")
	} else if user.Email != email || user.Name != name {
		if err := s.userRepo.UpdateProfile(ctx, user.ID, email, name); err != nil {
			return nil, nil, err
		}
		user.Email, user.Name = email, name
	}

	session, err := s.userRepo.CreateSession(ctx, security.GenerateSessionID(), user.ID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	removed, err := s.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("Cleaned up expired sessions")
	}
	return nil
}

// RunSessionCleanup sweeps expired sessions every interval until ctx is cancelled
func (s *AuthService) RunSessionCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.CleanupExpiredSessions(ctx); err != nil {
				s.log.Error().Err(err).Msg("Session cleanup failed")
			}
		}
	}
}
