package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/validator"
)

// Claims carried by every issued token. SchoolID is the tenant boundary;
// middleware rejects tokens without it.
type Claims struct {
	UserID   uint            `json:"user_id"`
	SchoolID uint            `json:"school_id"`
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register bootstraps a new driving school together with its admin user.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	s.logger.Info("Registering new school", "school_name", req.SchoolName, "email", req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	if taken, err := s.repo.User().ExistsByEmail(ctx, nil, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if req.TCNumber != "" {
		if taken, err := s.repo.User().ExistsByTCNumber(ctx, nil, req.TCNumber); err != nil {
			return nil, fmt.Errorf("failed to check tc number: %w", err)
		} else if taken {
			return nil, ErrTCNumberTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		school := &models.DrivingSchool{
			Name:     req.SchoolName,
			IsActive: true,
		}
		if err := txRepo.School().Create(ctx, nil, school); err != nil {
			return fmt.Errorf("failed to create school: %w", err)
		}

		user = &models.User{
			SchoolID:     school.ID,
			FullName:     req.FullName,
			Email:        req.Email,
			TCNumber:     req.TCNumber,
			Phone:        req.Phone,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		}
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login authenticates with email and password.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.checkPasswordAndIssue(user, req.Password)
}

// LoginTC authenticates with the Turkish national identity number.
func (s *authService) LoginTC(ctx context.Context, req *LoginTCRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, NewValidationError(err)
	}

	user, err := s.repo.User().GetByTCNumber(ctx, nil, req.TCNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.checkPasswordAndIssue(user, req.Password)
}

func (s *authService) checkPasswordAndIssue(user *models.User, password string) (*AuthResponse, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(user)
}

func (s *authService) issueToken(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := Claims{
		UserID:   user.ID,
		SchoolID: user.SchoolID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}
