package usecase

import (
	"context"

	preferencesin "peerlink/internal/modules/preferences/port/in"
	"peerlink/internal/modules/session/domain"
	sessiondto "peerlink/internal/modules/session/dto"
	sessionin "peerlink/internal/modules/session/port/in"
	sessionout "peerlink/internal/modules/session/port/out"
	"peerlink/internal/modules/session/service"
)

type Interactor struct {
	svc         *service.SessionService
	preferences preferencesin.Usecase
	verifier    sessionout.TokenVerifier
}

func NewInteractor(svc *service.SessionService, preferences preferencesin.Usecase, verifier sessionout.TokenVerifier) sessionin.Usecase {
	return &Interactor{svc: svc, preferences: preferences, verifier: verifier}
}

func (i *Interactor) Login(ctx context.Context, input sessiondto.LoginInput) (sessiondto.LoginOutput, error) {
	creds, err := domain.NewCredentials(input.Username, input.Password)
	if err != nil {
		return sessiondto.LoginOutput{}, err
	}
	claims, err := i.svc.Authenticate(ctx, creds)
	if err != nil {
		return sessiondto.LoginOutput{}, err
	}
	if input.Remember && i.preferences != nil {
		if err := i.preferences.RememberLogin(ctx, creds.Login()); err != nil {
			return sessiondto.LoginOutput{}, err
		}
	}
	return sessiondto.LoginOutput{Login: creds.Login(), ExpiresAt: claims.ExpiresAt}, nil
}

func (i *Interactor) Logout(ctx context.Context) error {
	return i.svc.Logout(ctx)
}

func (i *Interactor) Status(ctx context.Context, input sessiondto.StatusInput) (sessiondto.StatusOutput, error) {
	token, err := i.svc.Current()
	if err != nil {
		return sessiondto.StatusOutput{}, nil
	}
	claims := i.svc.Inspect(token)
	out := sessiondto.StatusOutput{
		Authenticated: true,
		Login:         claims.Username,
		Subject:       claims.Subject,
		ExpiresAt:     claims.ExpiresAt,
		Expired:       i.svc.Expired(claims),
	}
	if input.Verify && i.verifier != nil {
		if _, err := i.verifier.Verify(ctx, token); err != nil {
			out.VerifyError = err.Error()
		} else {
			out.Verified = true
		}
	}
	return out, nil
}

func (i *Interactor) IsAuthenticated(_ context.Context) bool {
	_, err := i.svc.Current()
	return err == nil
}

func (i *Interactor) AccessToken(_ context.Context) (string, error) {
	token, err := i.svc.Current()
	if err != nil {
		return "", err
	}
	return token.String(), nil
}

func (i *Interactor) Invalidate(ctx context.Context, rejected string) error {
	return i.svc.Expire(ctx, domain.Token(rejected))
}
