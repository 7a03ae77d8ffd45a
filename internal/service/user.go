package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type UserService struct {
	Users     repo.Collection[models.User]
	Events    EventPublisher
	JWTSecret []byte
	TokenTTL  time.Duration
	Now       func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) emailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	users, err := s.Users.Find(ctx, repo.Query{Filter: repo.Filter{"email": email}, Limit: 2})
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ID != except {
			return true, nil
		}
	}
	return false, nil
}

// Register refuses an email that already belongs to someone and leaves that
// account as it was.
func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	email := normalizeEmail(req.Email)

	taken, err := s.emailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, storageErr("lookup email", err)
	}
	if taken {
		l.Warn("register_error", "status", 409, "reason", "email already registered")
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: pwHash,
		Phone:        req.Phone,
		Street:       req.Street,
		Apartment:    req.Apartment,
		Zip:          req.Zip,
		City:         req.City,
		Country:      req.Country,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		// a concurrent registration may have won the unique index
		if taken, lookupErr := s.emailTaken(ctx, email, user.ID); lookupErr == nil && taken {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, storageErr("create user", err)
	}

	publish(ctx, l, s.Events, TopicUserEvents, user.ID.String(), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})
	return user, nil
}

// Login answers an unknown email and a wrong password the same way.
func (s *UserService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "user.login")

	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	email := normalizeEmail(req.Email)

	users, err := s.Users.Find(ctx, repo.Query{Filter: repo.Filter{"email": email}, Limit: 1})
	if err != nil {
		return nil, storageErr("lookup user", err)
	}
	if len(users) == 0 || !hash.CheckPassword(users[0].PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	user := users[0]

	token, exp, err := tokens.Issue(s.JWTSecret, user.ID.String(), user.IsAdmin, s.TokenTTL, s.now())
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	l.Info("login_success", "user_id", user.ID, "expires_at", exp)
	return &transport.LoginResponse{User: user.Email, Token: token}, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, storageErr("get user", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.Find(ctx, repo.Query{Sort: "name"})
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// Update replaces the profile in place. The stored password hash changes
// only when a new password is supplied.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req transport.UpdateUserRequest) (*models.User, error) {
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	email := normalizeEmail(req.Email)

	taken, err := s.emailTaken(ctx, email, id)
	if err != nil {
		return nil, storageErr("lookup email", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	var newHash string
	if req.Password != "" {
		if newHash, err = hash.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	user, err := s.Users.Update(ctx, id, func(u *models.User) {
		u.Name = req.Name
		u.Email = email
		u.Phone = req.Phone
		u.IsAdmin = req.IsAdmin
		u.Street = req.Street
		u.Apartment = req.Apartment
		u.Zip = req.Zip
		u.City = req.City
		u.Country = req.Country
		if newHash != "" {
			u.PasswordHash = newHash
		}
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, storageErr("update user", err)
	}
	return user, nil
}

// Delete leaves the user's orders in place.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "user.delete")

	if _, err := s.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return storageErr("delete user", err)
	}

	publish(ctx, l, s.Events, TopicUserEvents, id.String(), map[string]any{
		"type":   "user_deleted",
		"userID": id,
	})
	return nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	n, err := s.Users.Count(ctx, nil)
	if err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}
