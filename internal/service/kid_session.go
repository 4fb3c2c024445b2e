package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/security"
)

const (
	// KidSessionCookie holds the signed kid session token
	KidSessionCookie = "kid-session"
	// KidSessionTTL is how long a kid session lasts. Sessions are not renewed.
	KidSessionTTL = time.Hour
)

// KidSessionInfo is a verified kid session
type KidSessionInfo struct {
	SessionID string
	CreatedAt time.Time
	Kid       *models.Kid
}

// KidSessionManager creates and verifies PIN-authenticated kid sessions.
// Sessions live only in a signed cookie; nothing is stored server-side.
type KidSessionManager struct {
	kidRepo *repository.KidRepository
	signer  *security.KidTokenSigner
	now     func() time.Time
	log     zerolog.Logger
}

// NewKidSessionManager creates a kid session manager
func NewKidSessionManager(kidRepo *repository.KidRepository, signer *security.KidTokenSigner, log zerolog.Logger) *KidSessionManager {
	return &KidSessionManager{
		kidRepo: kidRepo,
		signer:  signer,
		now:     time.Now,
		log:     log,
	}
}

// SetClock replaces the time source
func (m *KidSessionManager) SetClock(now func() time.Time) {
	m.now = now
}

// Create checks the PIN and, on success, writes the session cookie.
// No cookie is written when the kid is missing, has no PIN, or the PIN is wrong.
func (m *KidSessionManager) Create(ctx context.Context, w http.ResponseWriter, r *http.Request, kidID, pin string) (string, *models.PublicKid, error) {
	kid, err := m.kidRepo.GetKidByID(ctx, kidID)
	if err != nil {
		return "", nil, err
	}
	if kid == nil {
		return "", nil, ErrKidNotFound
	}
	if !kid.HasPIN() {
		return "", nil, ErrPINNotSet
	}
	if !security.CheckPIN(kid.PINHash, pin) {
		m.log.Warn().Str("kid_id", kidID).Str("remote_addr", security.GetClientIP(r, false)).Msg("Invalid kid PIN attempt")
		return "", nil, ErrInvalidPIN
	}

	sessionID := security.GenerateSessionID()
	token, err := m.signer.Sign(kid.ID, sessionID, m.now())
	if err != nil {
		return "", nil, fmt.Errorf("failed to create kid session: %w", err)
	}

	http.SetCookie(w, security.CreateMaxAgeCookie(r, KidSessionCookie, token, KidSessionTTL))

	public := kid.Public()
	return sessionID, &public, nil
}

// Read returns the current kid session, or nil when there is none.
// Invalid, expired, or orphaned sessions clear the cookie and read as nil.
// Only storage failures are returned as errors.
func (m *KidSessionManager) Read(ctx context.Context, w http.ResponseWriter, r *http.Request) (*KidSessionInfo, error) {
	cookie, err := r.Cookie(KidSessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	claims, err := m.signer.Parse(cookie.Value)
	if err != nil {
		m.Clear(w, r)
		return nil, nil
	}

	createdAt := claims.CreatedTime()
	if m.now().Sub(createdAt) > KidSessionTTL {
		m.Clear(w, r)
		return nil, nil
	}

	kid, err := m.kidRepo.GetKidByID(ctx, claims.KidID)
	if err != nil {
		return nil, err
	}
	if kid == nil {
		m.Clear(w, r)
		return nil, nil
	}

	return &KidSessionInfo{
		SessionID: claims.SessionID,
		CreatedAt: createdAt,
		Kid:       kid,
	}, nil
}

// Clear removes the kid session cookie. It is safe to call without a session.
func (m *KidSessionManager) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, KidSessionCookie))
}
