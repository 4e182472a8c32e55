package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/auth"
)

type AuthUseCase struct {
	UserRepo entity.UserRepositoryInterface
	Hasher   PasswordHasher
	Tokens   TokenIssuer
}

func NewAuthUseCase(userRepo entity.UserRepositoryInterface, hasher PasswordHasher, tokens TokenIssuer) *AuthUseCase {
	return &AuthUseCase{UserRepo: userRepo, Hasher: hasher, Tokens: tokens}
}

func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*TokenPair, *entity.User, error) {
	user, err := uc.UserRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, nil, databaseError("find user", err)
	}
	if user == nil || uc.Hasher.Compare(user.PasswordHash, input.Password) != nil {
		return nil, nil, newDomainError(CodeUnauthenticated, "invalid email or password")
	}
	if !user.IsActive {
		return nil, nil, newDomainError(CodeUnauthorized, "user is inactive")
	}

	pair, err := uc.issue(*user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh trades a refresh token for a new pair. The user must still exist
// and be active.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := uc.userFromToken(ctx, refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}
	return uc.issue(*user)
}

// Authenticate resolves an access token to an active user.
func (uc *AuthUseCase) Authenticate(ctx context.Context, accessToken string) (*entity.User, error) {
	return uc.userFromToken(ctx, accessToken, auth.TokenAccess)
}

func (uc *AuthUseCase) userFromToken(ctx context.Context, raw string, kind auth.TokenKind) (*entity.User, error) {
	if raw == "" {
		return nil, newDomainError(CodeUnauthenticated, "missing token")
	}
	claims, err := uc.Tokens.Parse(raw)
	if err != nil || claims.Kind != kind || !isUUID(claims.Subject) {
		return nil, newDomainError(CodeUnauthenticated, "invalid or expired token")
	}

	user, err := uc.UserRepo.FindByID(ctx, claims.Subject)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, databaseError("find user", err)
	}
	if user == nil || !user.IsActive {
		return nil, newDomainError(CodeUnauthenticated, "user not found or inactive")
	}
	return user, nil
}

func (uc *AuthUseCase) issue(user entity.User) (*TokenPair, error) {
	access, err := uc.Tokens.Issue(user, auth.TokenAccess)
	if err != nil {
		return nil, &TechnicalError{Code: "TOKEN_ERROR", Message: "issue access token", Err: err}
	}
	refresh, err := uc.Tokens.Issue(user, auth.TokenRefresh)
	if err != nil {
		return nil, &TechnicalError{Code: "TOKEN_ERROR", Message: "issue refresh token", Err: err}
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}
