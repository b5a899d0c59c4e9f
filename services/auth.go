package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ustore/apperror"
	"ustore/metrics"
	"ustore/models"
	"ustore/repository"
)

type SignInRequest struct {
	// Username accepts either the username or the email of the account.
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned on successful sign-in.
type AuthResult struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type AuthService struct {
	store  *repository.Store
	users  *UserService
	tokens *TokenIssuer
	hasher PasswordHasher
	log    logrus.FieldLogger
}

func NewAuthService(store *repository.Store, users *UserService, tokens *TokenIssuer, hasher PasswordHasher, log logrus.FieldLogger) *AuthService {
	return &AuthService{store: store, users: users, tokens: tokens, hasher: hasher, log: log}
}

// SignUp registers an account with the default role.
func (s *AuthService) SignUp(ctx context.Context, in NewUser) (*models.User, error) {
	return s.users.Create(ctx, in)
}

// SignIn verifies the credentials of an active account and issues a token.
func (s *AuthService) SignIn(ctx context.Context, in SignInRequest) (*AuthResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, strings.TrimSpace(in.Username), in.Password)
	metrics.RecordSignIn(err == nil)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Failed to issue token", err)
	}

	s.log.WithField("user_id", user.ID).Info("User signed in")
	return &AuthResult{
		Token:    token,
		Type:     "Bearer",
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.RoleNames(),
	}, nil
}

func (s *AuthService) authenticate(ctx context.Context, login, password string) (*models.User, error) {
	invalid := apperror.New(apperror.InvalidCredentials, "Invalid username or password")

	user, err := s.store.Users.FindActiveByLogin(ctx, login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, internal(err)
	}

	ok, err := s.hasher.Matches(user.Password, password)
	if err != nil {
		s.log.WithField("user_id", user.ID).WithError(err).Warn("Stored password hash is unreadable")
		return nil, invalid
	}
	if !ok {
		return nil, invalid
	}
	return user, nil
}

// ResolvePrincipal verifies token and reloads its user. Tokens of deleted or
// deactivated users are rejected, and roles are taken from the store rather
// than from the token.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperror.Wrap(apperror.Unauthenticated, "Invalid token", err)
	}

	user, err := s.store.Users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(apperror.Unauthenticated, "User associated with token not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.Unauthenticated, "Account is disabled")
	}
	return principalOf(user), nil
}

// CurrentUser loads the account of the acting principal.
func (s *AuthService) CurrentUser(ctx context.Context, p *Principal) (*models.User, error) {
	p, err := RequirePrincipal(p)
	if err != nil {
		return nil, err
	}
	return s.users.Get(ctx, p.UserID)
}
