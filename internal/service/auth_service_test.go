package service

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_VerifyUser(t *testing.T) {
	cfg := &config.AppConfig{JWTSecret: "secret", JWTExp: 1}
	s := NewAuthService(cfg)
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		id := uuid.New().String()
		token, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTExp, id)
		require.NoError(t, err)

		user, err := s.VerifyUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
	})

	t.Run("Malformed User ID", func(t *testing.T) {
		token, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTExp, "42")
		require.NoError(t, err)

		_, err = s.VerifyUser(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Garbage Token", func(t *testing.T) {
		_, err := s.VerifyUser(ctx, "not.a.token")
		assert.Error(t, err)
	})
}
