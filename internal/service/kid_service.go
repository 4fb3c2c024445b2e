package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"piggybank/internal/credentials"
	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/security"
	"piggybank/internal/validation"
)

// AvatarStorage stores avatar images by URL
type AvatarStorage interface {
	Upload(ctx context.Context, kidID, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, avatarURL string) error
}

// CreateKidInput holds the fields for a new kid
type CreateKidInput struct {
	Name string
	Age  *int
	PIN  string
}

// KidService manages kid profiles on behalf of their parent
type KidService struct {
	kidRepo *repository.KidRepository
	avatars AvatarStorage
	log     zerolog.Logger
}

// NewKidService creates a new kid service. avatars may be nil when storage is not configured.
func NewKidService(kidRepo *repository.KidRepository, avatars AvatarStorage, log zerolog.Logger) *KidService {
	return &KidService{
		kidRepo: kidRepo,
		avatars: avatars,
		log:     log,
	}
}

// ListKids returns the parent's kids in creation order
func (s *KidService) ListKids(ctx context.Context, userID string) ([]models.Kid, error) {
	kids, err := s.kidRepo.ListKidsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list kids: %w", err)
	}
	return kids, nil
}

// GetKid returns a kid owned by userID
func (s *KidService) GetKid(ctx context.Context, userID, kidID string) (*models.Kid, error) {
	kid, err := s.kidRepo.GetKidForUser(ctx, kidID, userID)
	if err != nil {
		return nil, err
	}
	if kid == nil {
		return nil, ErrKidNotFound
	}
	return kid, nil
}

// CreateKid adds a kid with a zero balance. The PIN is optional.
func (s *KidService) CreateKid(ctx context.Context, userID string, in CreateKidInput) (*models.Kid, error) {
	in.Name = strings.TrimSpace(in.Name)

	v := validation.New()
	v.StringLength("name", in.Name, 1, 100)
	if in.Age != nil {
		v.Check(*in.Age >= 1 && *in.Age <= 18, "age", "age must be between 1 and 18")
	}
	if in.PIN != "" {
		v.Check(security.ValidatePIN(in.PIN) == nil, "pin", security.ErrPINFormat.Error())
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	kid := &models.Kid{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Age:       in.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.PIN != "" {
		hash, err := security.HashPIN(in.PIN)
		if err != nil {
			return nil, err
		}
		kid.PINHash = hash
	}

	if err := s.kidRepo.CreateKid(ctx, kid); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("kid_id", kid.ID).Msg("Created kid")
	return kid, nil
}

// SetPIN replaces a kid's PIN
func (s *KidService) SetPIN(ctx context.Context, userID, kidID, pin string) error {
	v := validation.New()
	v.Check(security.ValidatePIN(pin) == nil, "pin", security.ErrPINFormat.Error())
	if err := v.Err(); err != nil {
		return err
	}

	hash, err := security.HashPIN(pin)
	if err != nil {
		return err
	}
	ok, err := s.kidRepo.UpdatePINHash(ctx, kidID, userID, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKidNotFound
	}
	return nil
}

// RegeneratePIN assigns a new random PIN and returns it. This is the only time it is visible.
func (s *KidService) RegeneratePIN(ctx context.Context, userID, kidID string) (string, error) {
	pin, err := credentials.GeneratePIN()
	if err != nil {
		return "", fmt.Errorf("failed to generate PIN: %w", err)
	}
	if err := s.SetPIN(ctx, userID, kidID, pin); err != nil {
		return "", err
	}
	return pin, nil
}

// DeleteKid removes a kid together with its transactions and claims, then its stored avatar
func (s *KidService) DeleteKid(ctx context.Context, userID, kidID string) error {
	kid, err := s.GetKid(ctx, userID, kidID)
	if err != nil {
		return err
	}
	ok, err := s.kidRepo.DeleteKid(ctx, kidID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKidNotFound
	}
	s.log.Info().Str("user_id", userID).Str("kid_id", kidID).Msg("Deleted kid")

	if kid.AvatarURL != nil {
		s.removeAvatar(ctx, kidID, *kid.AvatarURL)
	}
	return nil
}

// removeAvatar deletes an avatar object that is no longer referenced. Failures only leave an orphan.
func (s *KidService) removeAvatar(ctx context.Context, kidID, avatarURL string) {
	if s.avatars == nil {
		return
	}
	if err := s.avatars.Delete(ctx, avatarURL); err != nil {
		s.log.Warn().Err(err).Str("kid_id", kidID).Str("avatar_url", avatarURL).Msg("Failed to delete old avatar")
	}
}

// UploadAvatar stores a new avatar image and points the kid at it
func (s *KidService) UploadAvatar(ctx context.Context, userID, kidID, filename, contentType string, r io.Reader) (*models.Kid, error) {
	if s.avatars == nil {
		return nil, ErrAvatarStorageDisabled
	}

	v := validation.New()
	v.Check(strings.HasPrefix(contentType, "image/"), "avatar", "avatar must be an image")
	if err := v.Err(); err != nil {
		return nil, err
	}

	kid, err := s.GetKid(ctx, userID, kidID)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.Upload(ctx, kid.ID, filename, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	ok, err := s.kidRepo.UpdateAvatarURL(ctx, kid.ID, userID, url)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrKidNotFound
	}

	if kid.AvatarURL != nil && *kid.AvatarURL != url {
		s.removeAvatar(ctx, kid.ID, *kid.AvatarURL)
	}
	kid.AvatarURL = &url
	return kid, nil
}
