package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/authz"
)

// UserRecord pairs an account with its stored credential. It never leaves
// the application layer.
type UserRecord struct {
	User
	PasswordHash string
}

// UserRepository captures the persistence interactions needed for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user UserRecord) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	CountUsers(ctx context.Context) (int, error)
}

// SessionRepository captures the persistence interactions needed for
// sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSessionByToken(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error)
}

// AuthService authenticates users and resolves opaque session tokens into
// principals.
type AuthService struct {
	users          UserRepository
	sessions       SessionRepository
	idGenerator    func() string
	tokenGenerator func() (string, error)
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService wires dependencies for authentication operations.
func NewAuthService(users UserRepository, sessions SessionRepository, idGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, sessions, idGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an auth service with a specified
// logger.
func NewAuthServiceWithLogger(users UserRepository, sessions SessionRepository, idGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		idGenerator:    idGenerator,
		tokenGenerator: generateSessionToken,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// generateSessionToken returns an opaque 256-bit token in hex.
func generateSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CreateUserInput captures the fields required to register an account.
type CreateUserInput struct {
	Email       string
	DisplayName string
	Role        authz.Role
	Password    string
}

// CreateUser registers an account. Only administrators may call it.
func (s *AuthService) CreateUser(ctx context.Context, principal Principal, input CreateUserInput) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if principal.Role != authz.RoleAdministrator {
		err = ErrForbidden
		return
	}

	if vErr := validateUserInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	hash, herr := HashPassword(input.Password)
	if herr != nil {
		err = herr
		return
	}

	createdAt := s.now()
	record := UserRecord{
		User: User{
			ID:          s.idGenerator(),
			Email:       strings.ToLower(strings.TrimSpace(input.Email)),
			DisplayName: strings.TrimSpace(input.DisplayName),
			Role:        input.Role,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		},
		PasswordHash: hash,
	}

	user, err = s.users.CreateUser(ctx, record)
	if err != nil {
		err = mapRepoError(err)
		user = User{}
	}
	return
}

// EnsureSeedAdmin creates the initial administrator account when the user
// store is empty. It is a no-op on an already populated store.
func (s *AuthService) EnsureSeedAdmin(ctx context.Context, email, password string) error {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if email == "" || password == "" {
		return nil
	}

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return mapRepoError(err)
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	createdAt := s.now()
	_, err = s.users.CreateUser(ctx, UserRecord{
		User: User{
			ID:          s.idGenerator(),
			Email:       strings.ToLower(strings.TrimSpace(email)),
			DisplayName: "Administrator",
			Role:        authz.RoleAdministrator,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return mapRepoError(err)
	}

	s.loggerWith(ctx, "EnsureSeedAdmin").InfoContext(ctx, "seed administrator created", "email", email)
	return nil
}

// Authenticate verifies credentials and issues a new session. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil || s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "Authenticate")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "session issued")
	}()

	record, gerr := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(params.Email)))
	if gerr != nil {
		if errors.Is(mapRepoError(gerr), ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = mapRepoError(gerr)
		return
	}

	if verr := VerifyPassword(record.PasswordHash, params.Password); verr != nil {
		err = ErrInvalidCredentials
		return
	}

	token, terr := s.tokenGenerator()
	if terr != nil {
		err = terr
		return
	}

	issuedAt := s.now()
	session := Session{
		ID:        s.idGenerator(),
		UserID:    record.ID,
		Token:     token,
		ExpiresAt: issuedAt.Add(s.sessionTTL),
		CreatedAt: issuedAt,
	}
	session, serr := s.sessions.CreateSession(ctx, session)
	if serr != nil {
		err = mapRepoError(serr)
		return
	}

	result = AuthenticateResult{User: record.User, Session: session}
	return
}

// ValidateSession resolves a token into the principal it belongs to.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.users == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth repositories not configured")
	}
	if token == "" {
		return Principal{}, ErrInvalidCredentials
	}

	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, mapRepoError(err)
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		return Principal{}, mapRepoError(err)
	}

	return Principal{UserID: user.ID, Role: user.Role}, nil
}

// Logout revokes the session behind the token. Revoking an unknown token is
// not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return nil
		}
		return mapRepoError(err)
	}
	return mapRepoError(s.sessions.RevokeSession(ctx, session.ID))
}

// PurgeExpiredSessions removes sessions past their expiry. Intended for a
// periodic maintenance caller.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int, error) {
	if s == nil || s.sessions == nil {
		return 0, fmt.Errorf("session repository not configured")
	}
	removed, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, mapRepoError(err)
	}
	return removed, nil
}

func validateUserInput(input CreateUserInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Email) == "" || !strings.Contains(input.Email, "@") {
		vErr.add("email", "a valid email is required")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
	if !input.Role.Valid() {
		vErr.add("role", "unknown role")
	}
	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	return vErr
}
