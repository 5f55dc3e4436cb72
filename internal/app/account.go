package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emotlink/pkg/auth"
	"emotlink/pkg/domain"
)

// SignUpRequest carries the fields of a signup form.
type SignUpRequest struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	PasswordConfirm   string `json:"passwordConfirm"`
	Birthday          string `json:"birthday"`
	AccountType       int    `json:"accountType"`
	VerificationToken string `json:"verificationToken"`
}

// SignUp validates the form, checks the email verification token, and
// creates the account with a bcrypt password hash.
func (a *App) SignUp(ctx context.Context, req SignUpRequest) (domain.User, error) {
	if a.verifier != nil {
		ok, err := a.verifier.Check(ctx, req.Email, req.VerificationToken)
		if err != nil {
			return domain.User{}, fmt.Errorf("check verification: %w", err)
		}
		if !ok {
			return domain.User{}, ErrEmailNotVerified
		}
	}

	if req.Password != req.PasswordConfirm {
		return domain.User{}, ErrPasswordMismatch
	}
	if len(req.Password) < 8 {
		return domain.User{}, ErrPasswordTooShort
	}
	if len(strings.TrimSpace(req.ID)) < 4 {
		return domain.User{}, ErrInvalidUserID
	}
	if req.AccountType != int(domain.AccountEmoter) && req.AccountType != int(domain.AccountLinker) {
		return domain.User{}, ErrInvalidAccountType
	}

	if taken, err := a.store.HasUserID(req.ID); err != nil {
		return domain.User{}, fmt.Errorf("check user id: %w", err)
	} else if taken {
		return domain.User{}, ErrDuplicateUserID
	}
	if taken, err := a.store.HasUserEmail(req.Email); err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	} else if taken {
		return domain.User{}, ErrDuplicateEmail
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return domain.User{}, ErrInvalidBirthday
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:            req.ID,
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  hash,
		Birthday:      birthday,
		AccountType:   domain.AccountType(req.AccountType),
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	if a.verifier != nil {
		if err := a.verifier.Consume(ctx, req.Email, req.VerificationToken); err != nil {
			return user, fmt.Errorf("consume verification: %w", err)
		}
	}
	return user, nil
}

// Login checks the credentials against the stored hash. The login key
// is the account's email address.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, found, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !found || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return domain.User{}, ErrEmailNotVerified
	}
	return user, nil
}

// DeleteAccount erases the user row, diary entries, and link records on
// both sides.
func (a *App) DeleteAccount(ctx context.Context, user domain.User) error {
	if err := a.store.DeleteUserData(user.ID); err != nil {
		return fmt.Errorf("delete user data: %w", err)
	}
	return nil
}

// UpdateName changes the account's display name, the only mutable
// profile field.
func (a *App) UpdateName(ctx context.Context, user domain.User, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if err := a.store.UpdateUserName(user.ID, name); err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	return nil
}

// IDAvailable reports whether an ID passes length validation and is not
// already taken.
func (a *App) IDAvailable(ctx context.Context, id string) (bool, error) {
	if len(strings.TrimSpace(id)) < 4 {
		return false, nil
	}
	taken, err := a.store.HasUserID(id)
	if err != nil {
		return false, fmt.Errorf("check user id: %w", err)
	}
	return !taken, nil
}
