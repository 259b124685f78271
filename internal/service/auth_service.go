package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"time"

	"store_backend/internal/filestore"
	"store_backend/internal/model"
	"store_backend/internal/repository"
	"store_backend/internal/utils"
)

var (
	ErrUsernameTaken       = errors.New("user with this username already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrNoChanges           = errors.New("no profile fields supplied")
	ErrOldPasswordRequired = errors.New("old password is required to set a new password")
)

// AuthService provides registration, login and profile management
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest, photo *multipart.FileHeader) (*model.User, string, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	EditProfile(ctx context.Context, userID int64, req model.EditProfileRequest, photo *multipart.FileHeader) (*model.User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

type authService struct {
	userRepo repository.UserRepository
	jwtUtil  *utils.JWTUtil
	files    *filestore.FileStore
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, files *filestore.FileStore) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtUtil:  jwtUtil,
		files:    files,
	}
}

// Register creates a new user account with a mandatory profile photo and
// returns an issued token so the client is authenticated immediately.
func (s *authService) Register(ctx context.Context, req model.RegisterRequest, photo *multipart.FileHeader) (*model.User, string, error) {
	existingUser, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUsernameTaken
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	userRole := model.RoleUser // Default role

	// Check for initial admin setup via environment variable
	initialAdmin := os.Getenv("INITIAL_ADMIN_USERNAME")
	if initialAdmin != "" && model.NormalizeUsername(req.Username) == model.NormalizeUsername(initialAdmin) {
		userRole = model.RoleAdmin
		log.Printf("INFO: User %s is being registered as ADMIN via INITIAL_ADMIN_USERNAME.", req.Username)
	}

	photoPath, err := s.files.Save(photo, filestore.ProfilePicturesDir)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Username:       req.Username,
		PasswordHash:   hashedPassword,
		Phone:          &req.Phone,
		Email:          &req.Email,
		ProfilePicture: photoPath,
		Role:           userRole,
		CreatedAt:      time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The row never made it in, so the photo must not stay behind
		if delErr := s.files.Delete(photoPath); delErr != nil {
			log.Printf("WARN: failed to clean up photo %s after registration failure: %v", photoPath, delErr)
		}
		if errors.Is(err, repository.ErrDuplicateUsername) {
			// Concurrent registration slipped past the lookup above
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		log.Printf("ERROR: User %s (ID: %d) created, but failed to generate token: %v", user.Username, user.ID, err)
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}

	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by username: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials // User not found
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials // Password mismatch
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// GetProfile returns the account of the authenticated user
func (s *authService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// EditProfile applies each supplied field independently. A password change
// requires the old password to verify first; a new photo replaces the old
// file on disk.
func (s *authService) EditProfile(ctx context.Context, userID int64, req model.EditProfileRequest, photo *multipart.FileHeader) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for profile edit: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	changed := false

	if req.Phone != nil {
		user.Phone = req.Phone
		changed = true
	}
	if req.Email != nil {
		user.Email = req.Email
		changed = true
	}
	if req.NewPassword != nil {
		if req.OldPassword == nil {
			return nil, ErrOldPasswordRequired
		}
		if !utils.CheckPasswordHash(*req.OldPassword, user.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
		hashed, err := utils.HashPassword(*req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash new password: %w", err)
		}
		user.PasswordHash = hashed
		changed = true
	}

	oldPhoto := ""
	if photo != nil {
		photoPath, err := s.files.Save(photo, filestore.ProfilePicturesDir)
		if err != nil {
			return nil, err
		}
		oldPhoto = user.ProfilePicture
		user.ProfilePicture = photoPath
		changed = true
	}

	if !changed {
		return user, ErrNoChanges
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if user.ProfilePicture != oldPhoto && oldPhoto != "" {
			// Keep the old file since the row still points at it
			if delErr := s.files.Delete(user.ProfilePicture); delErr != nil {
				log.Printf("WARN: failed to clean up photo %s after profile update failure: %v", user.ProfilePicture, delErr)
			}
		}
		return nil, fmt.Errorf("failed to update user in repository: %w", err)
	}

	if oldPhoto != "" {
		if err := s.files.Delete(oldPhoto); err != nil {
			log.Printf("WARN: failed to delete replaced profile photo %s: %v", oldPhoto, err)
		}
	}

	return user, nil
}

// DeleteAccount removes the user record and its profile photo. Product rows
// are removed by the database cascade; their image files are not swept.
func (s *authService) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user for deletion: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user in repository: %w", err)
	}

	if err := s.files.Delete(user.ProfilePicture); err != nil {
		log.Printf("WARN: failed to delete profile photo %s for removed user %d: %v", user.ProfilePicture, userID, err)
	}

	return nil
}
