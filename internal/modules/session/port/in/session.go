package in

import (
	"context"

	"peerlink/internal/modules/session/dto"
)

type Usecase interface {
	Login(ctx context.Context, input dto.LoginInput) (dto.LoginOutput, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context, input dto.StatusInput) (dto.StatusOutput, error)
	IsAuthenticated(ctx context.Context) bool
	// AccessToken returns apperrors.ErrNoCredential when no token is held.
	AccessToken(ctx context.Context) (string, error)
	// Invalidate drops the rejected token after the API reported it expired,
	// unless a newer token has replaced it meanwhile.
	Invalidate(ctx context.Context, rejected string) error
}
