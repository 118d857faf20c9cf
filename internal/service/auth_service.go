package service

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/model"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type AuthService struct {
	cfg *config.AppConfig
}

func NewAuthService(cfg *config.AppConfig) *AuthService {
	return &AuthService{
		cfg: cfg,
	}
}

func (s *AuthService) VerifyUser(ctx context.Context, tokenString string) (*model.UserDTO, error) {
	claims, err := helper.ParseJWT(s.cfg.JWTSecret, tokenString)
	if err != nil {
		slog.Debug("Rejected token", "error", err)
		return nil, helper.NewUnauthorizedError("Invalid or expired token")
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		slog.Warn("Token carries a malformed user ID", "userID", claims.UserID)
		return nil, helper.NewUnauthorizedError("Invalid or expired token")
	}

	return &model.UserDTO{ID: id.String()}, nil
}
