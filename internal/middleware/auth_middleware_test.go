package middleware

import (
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/model"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyUser(ctx context.Context, token string) (*model.UserDTO, error) {
	if token != "good" {
		return nil, helper.NewUnauthorizedError("Invalid token")
	}
	return &model.UserDTO{ID: "u1"}, nil
}

func captureUser(got **model.UserDTO) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_VerifyToken(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"Missing Header", "", http.StatusUnauthorized},
		{"Wrong Scheme", "Basic good", http.StatusUnauthorized},
		{"Bad Token", "Bearer bad", http.StatusUnauthorized},
		{"Valid Token", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var user *model.UserDTO
			req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			m.VerifyToken(captureUser(&user)).ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "u1", user.ID)
			} else {
				assert.Nil(t, user)
			}
		})
	}
}

func TestAuthMiddleware_VerifyWSToken(t *testing.T) {
	m := NewAuthMiddleware(fakeVerifier{})

	t.Run("Missing Token", func(t *testing.T) {
		var user *model.UserDTO
		rec := httptest.NewRecorder()
		m.VerifyWSToken(captureUser(&user)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Query Token", func(t *testing.T) {
		var user *model.UserDTO
		rec := httptest.NewRecorder()
		m.VerifyWSToken(captureUser(&user)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", user.ID)
	})
}
