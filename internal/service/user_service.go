package service

import (
	"context"

	"challenge-hub/internal/model"
)

type UserService struct {
	users CredentialStore
}

func NewUserService(users CredentialStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// Delete removes the account. Derived tokens need no separate cleanup: once
// the row is gone every refresh check fails on the user lookup.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}
