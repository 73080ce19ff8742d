package service

import (
	"context"
	"testing"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserCreatesThenRefreshes(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewInMemoryUserRepository(), discardLogger())

	u, err := svc.EnsureUser(ctx, domain.Identity{UID: "u1", Anonymous: true})
	require.NoError(t, err)
	assert.Equal(t, "Guest", u.Name)
	assert.True(t, u.IsGuest)

	u, err = svc.EnsureUser(ctx, domain.Identity{UID: "u1", DisplayName: "Ana", PhotoURL: "https://img/ana.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "https://img/ana.png", u.PhotoURL)
	assert.False(t, u.IsGuest)

	_, err = svc.EnsureUser(ctx, domain.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClaimUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repository.NewInMemoryUserRepository(), discardLogger())

	u, err := svc.ClaimUsername(ctx, domain.Identity{UID: "u1", DisplayName: "Ana"}, " Ana_1 ")
	require.NoError(t, err)
	assert.Equal(t, "ana_1", u.Username)

	_, err = svc.ClaimUsername(ctx, domain.Identity{UID: "u2"}, "ana_1")
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	_, err = svc.ClaimUsername(ctx, domain.Identity{UID: "u2"}, "no")
	assert.ErrorIs(t, err, domain.ErrInvalidUsername)

	got, err := svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana_1", got.Username)

	_, err = svc.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
