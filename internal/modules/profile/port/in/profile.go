package in

import (
	"context"

	"peerlink/internal/modules/profile/dto"
)

type Usecase interface {
	// LoadProfile runs one Loading cycle for a login. The returned error is
	// nil only when State is StateReady. A load overtaken by a newer one
	// reports StateIdle with apperrors.ErrSuperseded.
	LoadProfile(ctx context.Context, input dto.LoadProfileInput) (dto.ProfileOutput, error)
	// PurgeCache removes one login's cached profile, or every entry when
	// login is empty.
	PurgeCache(ctx context.Context, login string) (dto.CachePurgeOutput, error)
	// Latest is the generation of the most recent LoadProfile call made by
	// the interactive session (empty caller).
	Latest() uint64
}
