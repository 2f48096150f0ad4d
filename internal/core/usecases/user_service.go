package usecases

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/ports"
)

const (
	MsgListUsersFailed    = "Fetching users failed, please try again later."
	MsgUserExists         = "User exists already, please login instead."
	MsgSignupFailed       = "Signing up failed, please try again later."
	MsgInvalidCredentials = "Invalid credentials, could not log you in."
	MsgLoginFailed        = "Logging in failed, please try again later."
	MsgLoggedIn           = "Logged in!"
)

// SignupInput carries the fields accepted when registering.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Image    string
}

// UserService handles registration and credential checks.
// It never touches a user's place list.
type UserService struct {
	users ports.UserRepository
	cost  int
}

// NewUserService creates a new UserService hashing passwords with bcrypt.DefaultCost.
func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

// List returns all users without credentials.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, MsgListUsersFailed, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Signup registers a new user with an empty place list.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.KindPersistence, MsgSignupFailed, err)
	}
	if existing != nil {
		return nil, domain.NewError(domain.KindValidation, MsgUserExists, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistence, MsgSignupFailed, err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
		Image:        in.Image,
		PlaceIDs:     []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewError(domain.KindValidation, MsgUserExists, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgSignupFailed, err)
	}
	return user, nil
}

// Login checks an email/password pair and returns the matching user.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindUnauthorized, MsgInvalidCredentials, err)
		}
		return nil, domain.NewError(domain.KindPersistence, MsgLoginFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewError(domain.KindUnauthorized, MsgInvalidCredentials, err)
	}
	return user, nil
}
