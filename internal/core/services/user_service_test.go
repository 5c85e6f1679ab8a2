package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

func TestCheckAdminRole(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	admin := env.addUser(t, domain.RoleAdmin)
	voter := env.addUser(t, domain.RoleVoter)

	assert.True(t, env.access.CheckAdminRole(ctx, admin.ID))
	assert.False(t, env.access.CheckAdminRole(ctx, voter.ID))
	assert.False(t, env.access.CheckAdminRole(ctx, uuid.New()))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, env.access.CheckAdminRole(canceled, admin.ID))
}

func TestUserServiceGetByID(t *testing.T) {
	env := newTestEnv()
	svc := NewUserService(env.store.Users())
	voter := env.addUser(t, domain.RoleVoter)

	got, err := svc.GetByID(context.Background(), voter.ID)
	require.NoError(t, err)
	assert.Equal(t, voter.Email, got.Email)

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
