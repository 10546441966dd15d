package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todotree/internal/auth"
	"github.com/Kerhoff/todotree/internal/models"
	"github.com/Kerhoff/todotree/internal/repository"
)

// AuthResult is what a successful registration or login hands back.
type AuthResult struct {
	Token string
	User  *models.User
}

// Register creates a user and returns a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validateStruct(in); err != nil {
		s.metrics.AuthEvent("register", "invalid")
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("registration failed", err)
	}

	var user *models.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Users.GetByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return newError(KindConflict, "Username already taken")
		}
		existing, err = repos.Users.GetByEmail(ctx, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return newError(KindConflict, "Email already registered")
		}

		user, err = repos.Users.Create(ctx, &models.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			CreatedAt:    s.now().UTC(),
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return newError(KindConflict, "Username or email already registered")
		}
		return err
	})
	if err != nil {
		s.metrics.AuthEvent("register", "failure")
		return nil, asError(err, "registration failed")
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internal("registration failed", err)
	}

	s.metrics.AuthEvent("register", "success")
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("Registered new user")
	return &AuthResult{Token: token, User: user}, nil
}

// Login checks credentials, stamps last_login and returns a fresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, newError(KindValidation, "Missing username or password")
	}

	repos := s.store.Repositories()
	user, err := repos.Users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, internal("login failed", err)
	}
	if user == nil {
		s.metrics.AuthEvent("login", "failure")
		return nil, newError(KindAuthentication, "Invalid username or password")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		return nil, internal("login failed", err)
	}
	if !ok {
		s.metrics.AuthEvent("login", "failure")
		s.logger.WithField("user_id", user.ID).Warn("Rejected login with wrong password")
		return nil, newError(KindAuthentication, "Invalid username or password")
	}

	now := s.now().UTC()
	if err := repos.Users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, internal("login failed", err)
	}
	user.LastLogin = &now

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internal("login failed", err)
	}

	s.metrics.AuthEvent("login", "success")
	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return &AuthResult{Token: token, User: user}, nil
}

// Logout revokes the presented token when revocation is enabled. Without
// it the token stays valid until it expires and the client simply drops
// it.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) {
	revoked := s.tokens.Revoke(claims)
	s.metrics.AuthEvent("logout", "success")
	s.logger.WithFields(logrus.Fields{"subject": claims.Subject, "revoked": revoked}).Info("User logged out")
}

// Authenticate resolves a bearer token to its claims and user id.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*auth.Claims, int64, error) {
	if rawToken == "" {
		return nil, 0, newError(KindUnauthenticated, "Missing authorization token")
	}
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		e := &Error{Kind: KindUnauthenticated, Message: "Invalid or expired token", Err: err}
		if errors.Is(err, auth.ErrTokenRevoked) {
			e.Message = "Token has been revoked"
		}
		return nil, 0, e
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, &Error{Kind: KindUnauthenticated, Message: "Invalid or expired token", Err: err}
	}
	return claims, userID, nil
}

// CurrentUser loads the user a token was issued to.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.Repositories().Users.GetByID(ctx, userID)
	if err != nil {
		return nil, internal("failed to load user", err)
	}
	if user == nil {
		return nil, newError(KindNotFound, "User not found")
	}
	return user, nil
}

// UsernameAvailable reports whether no user has the username yet.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, newError(KindValidation, "Username is required")
	}
	user, err := s.store.Repositories().Users.GetByUsername(ctx, username)
	if err != nil {
		return false, internal("failed to check username", err)
	}
	return user == nil, nil
}

// EmailAvailable reports whether no user has the email yet.
func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, newError(KindValidation, "Email is required")
	}
	user, err := s.store.Repositories().Users.GetByEmail(ctx, email)
	if err != nil {
		return false, internal("failed to check email", err)
	}
	return user == nil, nil
}
