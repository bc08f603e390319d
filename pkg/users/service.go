package users

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

// Store persists identities.
type Store interface {
	LookupUser(ctx context.Context, username, email string) (*models.Identity, error)
	CreateUser(ctx context.Context, id *models.Identity) error
}

// Service handles login, logout and identity management.
type Service struct {
	store          Store
	blacklist      *auth.TokenBlacklist
	validate       *validator.Validate
	log            logger.Logger
	jwtSecret      string
	jwtExpiryHours int
	identityDomain string
}

// NewService creates a new user service
func NewService(store Store, blacklist *auth.TokenBlacklist, jwtSecret string, jwtExpiryHours int, identityDomain string, log logger.Logger) *Service {
	return &Service{
		store:          store,
		blacklist:      blacklist,
		validate:       validator.New(),
		log:            log,
		jwtSecret:      jwtSecret,
		jwtExpiryHours: jwtExpiryHours,
		identityDomain: identityDomain,
	}
}

// Login checks credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	identity, err := s.store.LookupUser(ctx, req.Username, req.Username+"@"+s.identityDomain)
	if err != nil {
		return nil, domain.NewLookupFailedError(err)
	}
	if identity == nil || !auth.CheckPassword(req.Password, identity.PasswordHash) {
		// Same answer for unknown user and bad password.
		return nil, domain.NewUnauthorizedError()
	}

	token, err := auth.GenerateJWT(identity.ID, identity.Username, identity.Role, s.jwtSecret, s.jwtExpiryHours)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.log.Info("user logged in", "username", identity.Username)
	return &models.AuthResponse{
		Token: token,
		User: &models.UserResponse{
			ID:       identity.ID,
			Username: identity.Username,
			Email:    identity.Email,
			Role:     identity.Role,
		},
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.blacklist == nil {
		return nil
	}
	return s.blacklist.Add(ctx, token, time.Duration(s.jwtExpiryHours)*time.Hour)
}

// Register creates a new identity with a hashed password.
func (s *Service) Register(ctx context.Context, actor models.Actor, username, email, role, password string) (*models.UserResponse, error) {
	if !auth.Can(actor.Role, auth.PermManageRepTracking) {
		return nil, domain.NewForbiddenError("Only managers can create users")
	}
	if username == "" || password == "" {
		return nil, domain.NewValidationError("username and password are required")
	}
	if email == "" {
		email = username + "@" + s.identityDomain
	}
	if role == "" {
		role = auth.RoleRep
	}

	existing, err := s.store.LookupUser(ctx, username, email)
	if err != nil {
		return nil, domain.NewLookupFailedError(err)
	}
	if existing != nil {
		return nil, domain.NewValidationError("username already taken")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	identity := &models.Identity{
		ID:           domain.NewID(),
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, identity); err != nil {
		return nil, err
	}

	s.log.Info("user created", "username", username, "role", role, "by", actor.Username)
	return &models.UserResponse{ID: identity.ID, Username: username, Email: email, Role: role}, nil
}
