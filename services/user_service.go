package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-restful/auth"
	"recipe-restful/models"
	"recipe-restful/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is enforced on registration and on password change.
const MinPasswordLength = 5

// The UserService interface defines the methods that user services need to implement
type UserService interface {
	CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error)
	Authenticate(ctx context.Context, input *TokenInput) (string, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, input *UpdateUserInput, partial bool) (*models.User, error)
	EnsureSuperuser(ctx context.Context, email, password string) (*models.User, bool, error)
}

// --- Structs for Input/Output ---
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255" description:"Email used to log in"`
	Password string `json:"password" validate:"required,min=5" description:"At least 5 characters"`
	Name     string `json:"name" validate:"max=255"`
}

type TokenInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserInput uses pointers to distinguish between empty and not provided.
type UpdateUserInput struct {
	Name     *string `json:"name" validate:"omitnil,max=255"`
	Password *string `json:"password" validate:"omitnil,min=5"`
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	repo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

// NormalizeEmail lower-cases the domain part of an address and trims
// surrounding space. The local part is kept as typed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateUser registers a new active user. Duplicate emails are reported as
// validation errors, like any other unacceptable input.
func (s *userService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	input.Email = NormalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, validationErrorf("user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error checking existing user: %w", err)
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    input.Email,
		Password: hashedPassword,
		Name:     input.Name,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErrorf("user with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// Authenticate exchanges credentials for a bearer token. Every failure,
// including a blank password or an unknown email, yields ErrInvalidCredentials
// so callers cannot probe which emails are registered.
func (s *userService) Authenticate(ctx context.Context, input *TokenInput) (string, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("database error retrieving user: %w", err)
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	return token, nil
}

// GetProfile returns the authenticated user. A token whose user vanished or
// was deactivated counts as an authentication failure.
func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuth
		}
		return nil, fmt.Errorf("database error retrieving user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAuth
	}
	return user, nil
}

// UpdateProfile changes name and/or password of the user itself. With
// partial unset (PUT) both fields must be supplied.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, input *UpdateUserInput, partial bool) (*models.User, error) {
	if !partial && (input.Name == nil || input.Password == nil) {
		return nil, validationErrorf("name and password are required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	needsSave := false
	if input.Name != nil && user.Name != *input.Name {
		user.Name = *input.Name
		needsSave = true
	}
	if input.Password != nil {
		hashedPassword, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashedPassword
		needsSave = true
	}

	if needsSave {
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to save user updates: %w", err)
		}
	}
	return user, nil
}

// EnsureSuperuser creates an active staff superuser unless a user with that
// email already exists. The bool reports whether one was created.
func (s *userService) EnsureSuperuser(ctx context.Context, email, password string) (*models.User, bool, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, validationErrorf("superuser email and password are required")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("database error checking existing user: %w", err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}
	user := models.User{
		Email:       email,
		Password:    hashedPassword,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, false, fmt.Errorf("failed to create superuser: %w", err)
	}
	return &user, true, nil
}
