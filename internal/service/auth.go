package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bindisa/agritech-api/internal/domain"
	"github.com/bindisa/agritech-api/internal/security"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

// GoogleProfile is the subset of a verified Google ID token we use
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier validates a Google ID token
type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleProfile, error)
}

// IDTokenVerifier implements GoogleVerifier against Google's token endpoint
type IDTokenVerifier struct {
	clientID string
}

// NewIDTokenVerifier creates a verifier bound to an OAuth client ID
func NewIDTokenVerifier(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{clientID: clientID}
}

func (v *IDTokenVerifier) Verify(ctx context.Context, rawToken string) (*GoogleProfile, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate google token: %w", err)
	}

	profile := &GoogleProfile{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		profile.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		profile.Name = name
	}
	if profile.Email == "" {
		return nil, errors.New("google token missing email claim")
	}
	return profile, nil
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo   domain.UserRepository
	jwtManager *security.JWTManager
	encryptor  *security.Encryptor
	google     GoogleVerifier
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	jwtManager *security.JWTManager,
	encryptor *security.Encryptor,
	google GoogleVerifier,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		encryptor:  encryptor,
		google:     google,
	}
}

// Register creates a new user account and signs it in
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.User, *domain.TokenPair, error) {
	// Check if email already exists
	exists, err := s.userRepo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, nil, domain.ErrEmailTaken
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Create user
	now := time.Now()
	user := &domain.User{
		ID:                uuid.New(),
		Name:              input.Name,
		Email:             input.Email,
		PasswordHash:      string(hashedPassword),
		Phone:             input.Phone,
		Role:              domain.RoleFarmer,
		IsActive:          true,
		PreferredLanguage: domain.ParseLanguage(input.Language),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	// Get user by email
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	return s.issueTokens(user)
}

// LoginWithGoogle signs a user in with a verified Google ID token,
// creating the account on first sign-in.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawToken string) (*domain.TokenPair, error) {
	profile, err := s.google.Verify(ctx, rawToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByGoogleID(ctx, profile.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		// Link by email when the account already exists
		user, err = s.userRepo.GetByEmail(ctx, profile.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to get user by email: %w", err)
		}
		if user != nil {
			user.GoogleID = profile.Subject
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to link google account: %w", err)
			}
		}
	}

	if user == nil {
		now := time.Now()
		user = &domain.User{
			ID:                uuid.New(),
			Name:              profile.Name,
			Email:             profile.Email,
			GoogleID:          profile.Subject,
			Role:              domain.RoleFarmer,
			IsActive:          true,
			PreferredLanguage: domain.LangEnglish,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if user.Name == "" {
			user.Name = profile.Email
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	// Keep the raw token encrypted for later API calls on the user's behalf
	if s.encryptor != nil {
		cipher, err := s.encryptor.EncryptString(rawToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt oauth token: %w", err)
		}
		user.OAuthTokenCipher = cipher
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to store oauth token: %w", err)
		}
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	return s.issueTokens(user)
}

// Refresh refreshes the access token using a refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	// Validate refresh token
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	// Get user
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	return s.issueTokens(user)
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) issueTokens(user *domain.User) (*domain.TokenPair, error) {
	accessToken, refreshToken, expiresIn, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, user.Role, user.IsPremium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}
