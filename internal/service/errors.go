package service

import "errors"

var (
	ErrKidNotFound           = errors.New("kid not found")
	ErrPINNotSet             = errors.New("PIN not set for this kid")
	ErrInvalidPIN            = errors.New("invalid PIN")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionExpired        = errors.New("session expired")
	ErrRewardNotFound        = errors.New("reward not found")
	ErrClaimNotFound         = errors.New("claim not found")
	ErrClaimResolved         = errors.New("claim already resolved")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrAIUnavailable         = errors.New("AI assistant is not configured")
	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")
)
