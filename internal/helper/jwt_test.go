package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWT(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		token, err := GenerateJWT("secret", 1, "user-1")
		assert.NoError(t, err)

		claims, err := ParseJWT("secret", token)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := GenerateJWT("secret", 1, "user-1")
		assert.NoError(t, err)

		_, err = ParseJWT("other", token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateJWT("secret", -1, "user-1")
		assert.NoError(t, err)

		_, err = ParseJWT("secret", token)
		assert.Error(t, err)
	})
}
