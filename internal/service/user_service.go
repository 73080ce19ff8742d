package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
)

type UserService struct {
	users repository.UserRepository
	log   *slog.Logger
}

func NewUserService(users repository.UserRepository, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{users: users, log: log}
}

// EnsureUser creates the profile on first sign-in and refreshes the display
// fields afterwards.
func (s *UserService) EnsureUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	const op = "service.user.EnsureUser"
	log := s.log.With(slog.String("op", op), slog.String("uid", id.UID))

	if err := requireCaller(id); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id.UID)
	if errors.Is(err, repository.ErrUserNotFound) {
		name := id.DisplayName
		if name == "" {
			name = defaultGuestName
		}
		user = domain.NewUser(id.UID, name, id.Email, id.PhotoURL, id.Anonymous)
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrUserExists) {
				return s.users.GetByID(ctx, id.UID)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("user created")
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	changed := false
	if id.DisplayName != "" && id.DisplayName != user.Name {
		user.Name = id.DisplayName
		changed = true
	}
	if id.Email != "" && id.Email != user.Email {
		user.Email = id.Email
		changed = true
	}
	if id.PhotoURL != "" && id.PhotoURL != user.PhotoURL {
		user.PhotoURL = id.PhotoURL
		changed = true
	}
	if user.IsGuest && !id.Anonymous {
		user.IsGuest = false
		changed = true
	}
	if changed {
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return user, nil
}

func (s *UserService) ClaimUsername(ctx context.Context, caller domain.Identity, raw string) (*domain.User, error) {
	const op = "service.user.ClaimUsername"

	username, err := domain.NormalizeUsername(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.EnsureUser(ctx, caller); err != nil {
		return nil, err
	}
	if err := s.users.ClaimUsername(ctx, caller.UID, username); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("username claimed", slog.String("op", op), slog.String("uid", caller.UID), slog.String("username", username))
	return s.users.GetByID(ctx, caller.UID)
}

func (s *UserService) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	const op = "service.user.GetUser"

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
