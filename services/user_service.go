package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

const minPasswordLength = 6

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  models.Address
}

// ProfileInput updates only the non-nil fields.
type ProfileInput struct {
	Name    *string
	Phone   *string
	Address *models.Address
}

type UserService struct {
	users      UserStore
	tokens     *utils.TokenManager
	bcryptCost int
	now        func() time.Time
}

type UserServiceOption func(*UserService)

// WithBcryptCost sets the hashing cost for new passwords.
func WithBcryptCost(cost int) UserServiceOption {
	return func(s *UserService) { s.bcryptCost = cost }
}

func NewUserService(users UserStore, tokens *utils.TokenManager, opts ...UserServiceOption) *UserService {
	s := &UserService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a customer account and returns it with a fresh token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := models.NormalizeEmail(in.Email)
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, "", utils.NewValidationError("name is required")
	case email == "":
		return nil, "", utils.NewValidationError("email is required")
	case strings.TrimSpace(in.Phone) == "":
		return nil, "", utils.NewValidationError("phone is required")
	case len(in.Password) < minPasswordLength:
		return nil, "", utils.NewValidationError("password must be at least %d characters", minPasswordLength)
	}
	if err := in.Address.Validate(); err != nil {
		return nil, "", utils.NewValidationError("%s", err.Error())
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", utils.NewValidationError("email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", utils.NewInternalError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", utils.NewInternalError(err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      in.Address,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", utils.NewValidationError("email already registered")
		}
		return nil, "", utils.NewInternalError(err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", utils.NewInternalError(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("new user registered")
	return user, token, nil
}

// Authenticate checks the credentials and issues a token.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, "", utils.NewInvalidCredential("invalid email or password")
	}
	if err != nil {
		return nil, "", utils.NewInternalError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", utils.NewInvalidCredential("invalid email or password")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", utils.NewInternalError(err)
	}
	return user, token, nil
}

// Identify resolves a verified token subject to the current caller. The role
// is read from the store so role changes apply to tokens already issued.
func (s *UserService) Identify(ctx context.Context, userID string) (Caller, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Caller{}, utils.NewInvalidCredential("user no longer exists")
	}
	if err != nil {
		return Caller{}, utils.NewInternalError(err)
	}
	return Caller{UserID: user.ID, Role: user.Role}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NewNotFound("user not found")
	}
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller Caller, in ProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, utils.NewValidationError("name cannot be empty")
		}
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		if strings.TrimSpace(*in.Phone) == "" {
			return nil, utils.NewValidationError("phone cannot be empty")
		}
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		if err := in.Address.Validate(); err != nil {
			return nil, utils.NewValidationError("%s", err.Error())
		}
		user.Address = *in.Address
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, caller Caller, current, next string) error {
	user, err := s.Get(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return utils.NewInvalidCredential("current password is incorrect")
	}
	if len(next) < minPasswordLength {
		return utils.NewValidationError("new password must be at least %d characters", minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), s.bcryptCost)
	if err != nil {
		return utils.NewInternalError(err)
	}
	user.PasswordHash = string(hashed)
	if err := s.save(ctx, user); err != nil {
		return err
	}

	utils.InfoLogger.WithField("user_id", user.ID).Info("password changed")
	return nil
}

// SetRole grants or revokes admin rights.
func (s *UserService) SetRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, utils.NewValidationError("invalid role %q", role)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    role,
	}).Info("user role changed")
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *models.User) error {
	user.UpdatedAt = s.now()
	err := s.users.UpdateUser(ctx, user)
	if errors.Is(err, ErrNotFound) {
		return utils.NewNotFound("user not found")
	}
	if err != nil {
		return utils.NewInternalError(err)
	}
	return nil
}

// EnsureAdmin creates the administrator account on first start. An existing
// account with that email is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = models.NormalizeEmail(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		utils.InfoLogger.Printf("Admin user %s already exists", email)
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if len(password) < minPasswordLength {
		return utils.NewValidationError("admin password must be at least %d characters", minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}
	now := s.now()
	admin := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil && !errors.Is(err, ErrDuplicateEmail) {
		return err
	}
	utils.InfoLogger.Printf("Admin user %s created", email)
	return nil
}
