package in

import (
	"context"

	sessiondto "peerlink/internal/modules/session/dto"
	sessionin "peerlink/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Login(ctx context.Context, username, password string, remember bool) (sessiondto.LoginOutput, error) {
	return h.usecase.Login(ctx, sessiondto.LoginInput{Username: username, Password: password, Remember: remember})
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) Status(ctx context.Context, verify bool) (sessiondto.StatusOutput, error) {
	return h.usecase.Status(ctx, sessiondto.StatusInput{Verify: verify})
}

func (h CLIHandler) IsAuthenticated(ctx context.Context) bool {
	return h.usecase.IsAuthenticated(ctx)
}
