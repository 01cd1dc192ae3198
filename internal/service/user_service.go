package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medibook/internal/cache"
	apperrors "medibook/internal/errors"
	"medibook/internal/model"
	"medibook/internal/repository"
)

const userCacheTTL = time.Minute

// LocationInput updates where a user lives.
type LocationInput struct {
	Latitude  float64
	Longitude float64
	City      string
	State     string
	Country   string
}

// ProfileInput updates a user's own contact details. Empty fields are kept.
type ProfileInput struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// AdminUserInput is an administrative user update. Empty fields are kept.
type AdminUserInput struct {
	ProfileInput
	Role model.Role
}

// UserService is the identity provider plus profile management.
type UserService interface {
	ResolveUser(ctx context.Context, email string) (*model.User, error)
	UpdateLocation(ctx context.Context, email string, in LocationInput) (*model.User, error)
	UpdateProfile(ctx context.Context, email string, in ProfileInput) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, in AdminUserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(email string) string {
	return "user:" + repository.NormalizeEmail(email)
}

// ResolveUser maps a token subject to a stored user. Unknown identities
// are Unauthorized, not NotFound. The cached copy carries no password hash
// and must not be written back.
func (s *userService) ResolveUser(ctx context.Context, email string) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(email), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	s.cache.SetJSON(ctx, s.cacheKey(email), user, userCacheTTL)
	return user, nil
}

func (s *userService) load(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, user *model.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.Email))
	return nil
}

func (s *userService) UpdateLocation(ctx context.Context, email string, in LocationInput) (*model.User, error) {
	user, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	lat, lon := in.Latitude, in.Longitude
	user.Latitude = &lat
	user.Longitude = &lon
	user.City = in.City
	user.State = in.State
	user.Country = in.Country

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, email string, in ProfileInput) (*model.User, error) {
	user, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	applyProfile(user, in)

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, in AdminUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProfile(user, in.ProfileInput)
	if in.Role != "" {
		user.Role = in.Role
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user and, with them, their appointments.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.Email))
	return nil
}

func applyProfile(user *model.User, in ProfileInput) {
	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.Address != "" {
		user.Address = in.Address
	}
}
