package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user UserCredentials) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	SetUserRole(ctx context.Context, id string, role Role, updatedAt time.Time) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		hash:        hash,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates an account with the user role. Anyone may register.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	normalized := normalizeRegisterParams(params)
	logger := s.loggerWith(ctx, "Register", "email", normalized.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	user, err = s.create(ctx, normalized, RoleUser)
	return
}

// CreateUser creates an account with an explicit role for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	normalized := normalizeRegisterParams(params.Input)
	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
		"email", normalized.Email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID, "role", user.Role).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	role, ok := ParseRole(string(params.Role))
	if !ok {
		err = newValidationError("role", "role must be user or admin")
		return
	}

	user, err = s.create(ctx, normalized, role)
	return
}

func (s *UserService) create(ctx context.Context, input RegisterParams, role Role) (User, error) {
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	if vErr := validateRegisterParams(input); vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	id := input.ID
	if id == "" {
		id = s.idGenerator()
	}
	now := s.now()
	creds := UserCredentials{
		User: User{
			ID:        id,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: hash,
	}

	persisted, err := s.users.CreateUser(ctx, creds)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return persisted, nil
}

// Me returns the account of the calling principal.
func (s *UserService) Me(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if !principal.Authenticated() {
		return User{}, ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		err = mapUserRepoError(err)
		s.loggerWith(ctx, "Me", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to load current user", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}
	return user, nil
}

// SetUserRole changes the role of an account for administrators.
func (s *UserService) SetUserRole(ctx context.Context, params SetUserRoleParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	userID := strings.TrimSpace(params.UserID)
	logger := s.loggerWith(ctx, "SetUserRole",
		"principal_id", params.Principal.UserID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set user role", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("role", user.Role).InfoContext(ctx, "user role updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if strings.TrimSpace(params.Role) == "" {
		err = newValidationError("role", "role is required")
		return
	}
	role, ok := ParseRole(params.Role)
	if !ok {
		err = newValidationError("role", "role must be user or admin")
		return
	}

	user, err = s.users.SetUserRole(ctx, userID, role, s.now())
	if err != nil {
		err = mapUserRepoError(err)
	}
	return
}

// DeleteUser removes a user for administrators. The user's sessions and
// reservations go with it.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	userID = strings.TrimSpace(userID)
	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		err = mapUserRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers returns users sorted by email for administrators.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})
	return users, nil
}

func normalizeRegisterParams(input RegisterParams) RegisterParams {
	return RegisterParams{
		ID:        strings.TrimSpace(input.ID),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Password:  input.Password,
	}
}

func validateRegisterParams(input RegisterParams) *ValidationError {
	vErr := &ValidationError{}
	if input.FirstName == "" {
		vErr.add("first_name", "first_name is required")
	}
	if input.LastName == "" {
		vErr.add("last_name", "last_name is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if addr, err := mail.ParseAddress(input.Email); err != nil || addr.Address != input.Email {
		vErr.add("email", "email must be a valid address")
	}
	if input.Password == "" {
		vErr.add("password", "password is required")
	} else if len(input.Password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return vErr
}

func mapUserRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return &ValidationError{FieldErrors: map[string]string{"user": "violates persistence constraints"}}
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	return fmt.Errorf("user store: %w", err)
}
