package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
	"cloth_pos_backend/pkg/utils"
)

// Custom errors for authentication
var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
)

// --- DTOs ---

type RegisterRequest struct {
	Username string  `json:"username" binding:"required,min=3"`
	Password string  `json:"password" binding:"required,min=8"`
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// --- AuthService Interface ---
type AuthService interface {
	Register(req RegisterRequest) (*models.User, error)
	Login(req LoginRequest) (*LoginResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	txRunner repositories.TxRunner
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(ar repositories.AuthRepository, tr repositories.TxRunner) AuthService {
	return &authService{authRepo: ar, txRunner: tr}
}

func (s *authService) Register(req RegisterRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: true,
	}

	var userID int64
	err = s.txRunner.RunInTransaction(func(tx repositories.SQLExecutor) error {
		id, err := s.authRepo.CreateUser(tx, user, string(hashed))
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				if repositories.IsConstraint(err, "users_email_key") {
					return ErrEmailExists
				}
				return ErrUsernameExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		userID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.authRepo.FindUserByID(userID)
}

func (s *authService) Login(req LoginRequest) (*LoginResponse, error) {
	user, hashedPassword, err := s.authRepo.FindUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := utils.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &LoginResponse{AccessToken: token, User: user}, nil
}

func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return user, nil
}
