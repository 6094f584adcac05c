package in

import (
	"context"

	profiledto "peerlink/internal/modules/profile/dto"
	profilein "peerlink/internal/modules/profile/port/in"
)

type CLIHandler struct {
	usecase profilein.Usecase
}

func NewCLIHandler(usecase profilein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Load(ctx context.Context, login string) (profiledto.ProfileOutput, error) {
	return h.usecase.LoadProfile(ctx, profiledto.LoadProfileInput{Login: login})
}

func (h CLIHandler) PurgeCache(ctx context.Context, login string) (profiledto.CachePurgeOutput, error) {
	return h.usecase.PurgeCache(ctx, login)
}

func (h CLIHandler) Latest() uint64 {
	return h.usecase.Latest()
}
