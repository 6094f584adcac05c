package out

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"peerlink/internal/modules/session/domain"
	sessionout "peerlink/internal/modules/session/port/out"
)

// JWTInspector reads claims without checking the signature. It is only used
// for display; the API remains the authority on validity.
type JWTInspector struct {
	parser *jwt.Parser
}

func NewJWTInspector() sessionout.TokenInspector {
	return &JWTInspector{parser: jwt.NewParser()}
}

func (i *JWTInspector) Inspect(token domain.Token) (domain.Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(token.String(), claims); err != nil {
		return domain.Claims{}, fmt.Errorf("parse token claims: %w", err)
	}
	out := domain.Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time.UTC()
	}
	if name, ok := claims["preferred_username"].(string); ok {
		out.Username = name
	}
	return out, nil
}
