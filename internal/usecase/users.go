package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/xavierca1/mrk-crm/internal/entity"
)

// UserUseCase is the admin-only user management surface.
type UserUseCase struct {
	UserRepo entity.UserRepositoryInterface
	Hasher   PasswordHasher
	Clock    clock.Clock
}

func NewUserUseCase(userRepo entity.UserRepositoryInterface, hasher PasswordHasher, clk clock.Clock) *UserUseCase {
	if clk == nil {
		clk = clock.WallClock
	}
	return &UserUseCase{UserRepo: userRepo, Hasher: hasher, Clock: clk}
}

func (uc *UserUseCase) List(ctx context.Context, actor entity.User) ([]entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := uc.UserRepo.List(ctx)
	if err != nil {
		return nil, databaseError("list users", err)
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

func (uc *UserUseCase) Create(ctx context.Context, input CreateUserInput, actor entity.User) (*entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return uc.create(ctx, input)
}

// EnsureAdmin creates an admin with the given credentials unless a user with
// that e-mail already exists. created is false when nothing was written.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, name, email, password string) (u *entity.User, created bool, err error) {
	existing, err := uc.UserRepo.FindByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, false, databaseError("find user", err)
	}

	u, err = uc.create(ctx, CreateUserInput{Name: name, Email: email, Password: password, Role: entity.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (uc *UserUseCase) create(ctx context.Context, input CreateUserInput) (*entity.User, error) {
	if errs := ValidateCreateUserInput(input); len(errs) > 0 {
		return nil, errs
	}

	email := normalizeEmail(input.Email)
	if err := uc.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := uc.Hasher.Hash(input.Password)
	if err != nil {
		return nil, &TechnicalError{Code: "HASH_ERROR", Message: "hash password", Err: err}
	}

	u := &entity.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    uc.Clock.Now(),
	}
	if err := uc.UserRepo.Create(ctx, u); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return nil, newDomainError(CodeConflict, "email already registered")
		}
		return nil, databaseError("create user", err)
	}
	return u, nil
}

func (uc *UserUseCase) Update(ctx context.Context, input UpdateUserInput, actor entity.User) (*entity.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if errs := ValidateUpdateUserInput(input); len(errs) > 0 {
		return nil, errs
	}

	u, err := uc.UserRepo.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, newDomainError(CodeNotFound, "user not found")
		}
		return nil, databaseError("find user", err)
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != u.Email {
			if err := uc.ensureEmailFree(ctx, email); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		u.Role = *input.Role
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := uc.Hasher.Hash(*input.Password)
		if err != nil {
			return nil, &TechnicalError{Code: "HASH_ERROR", Message: "hash password", Err: err}
		}
		u.PasswordHash = hash
	}

	if err := uc.UserRepo.Update(ctx, u); err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return nil, newDomainError(CodeConflict, "email already registered")
		}
		return nil, databaseError("update user", err)
	}
	return u, nil
}

func (uc *UserUseCase) ensureEmailFree(ctx context.Context, email string) error {
	_, err := uc.UserRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return newDomainError(CodeConflict, "email already registered")
	case errors.Is(err, entity.ErrNotFound):
		return nil
	}
	return databaseError("find user", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
