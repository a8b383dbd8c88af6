package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

// AuthService implements console login and logout on top of the session guard.
type AuthService struct {
	issuer ports.TokenIssuer
	guard  ports.SessionGuard
	log    zerolog.Logger
}

func NewAuthService(issuer ports.TokenIssuer, guard ports.SessionGuard, log zerolog.Logger) *AuthService {
	return &AuthService{issuer: issuer, guard: guard, log: log.With().Str("component", "auth").Logger()}
}

// Login exchanges credentials for a token and stores it. A token that does not
// yield an active session is refused and any previous session is left alone.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Claims, error) {
	if email == "" || password == "" {
		return domain.Claims{}, domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Login(ctx, email, password)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("login: %w", err)
	}

	previous, hadPrevious := s.guard.Credential(ctx)
	s.guard.SetCredential(ctx, token)
	stored, _ := s.guard.Credential(ctx)
	claims, ok := s.guard.CurrentClaims(ctx)
	if stored != token || !ok || !s.guard.IsActive(ctx) {
		if hadPrevious {
			s.guard.SetCredential(ctx, previous)
		} else {
			s.guard.ClearCredential(ctx)
		}
		s.log.Warn().Str("email", email).Msg("backend issued an unusable token")
		return domain.Claims{}, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}

	s.log.Info().Int64("subject_id", claims.SubjectID).Str("role", claims.RoleName()).Msg("signed in")
	return claims, nil
}

// Logout clears the stored credential. It is safe to call when signed out.
func (s *AuthService) Logout(ctx context.Context) {
	s.guard.ClearCredential(ctx)
	s.log.Info().Msg("signed out")
}
