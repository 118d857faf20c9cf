package repository

import (
	"ChatSyncAPI/internal/model"
	"context"
	stdsql "database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePaging(t *testing.T) {
	assert.Equal(t, model.DefaultChatListLimit, normalizeLimit(0))
	assert.Equal(t, model.DefaultChatListLimit, normalizeLimit(-3))
	assert.Equal(t, 20, normalizeLimit(20))
	assert.Equal(t, 250, normalizeLimit(250))

	assert.Equal(t, 0, normalizeOffset(-1))
	assert.Equal(t, 40, normalizeOffset(40))
}

func TestNullConversions(t *testing.T) {
	t.Run("Invalid Values Map To Nil", func(t *testing.T) {
		assert.Nil(t, nullString(stdsql.NullString{}))
		assert.Nil(t, nullTime(stdsql.NullTime{}))
		assert.Nil(t, nullInt(stdsql.NullInt64{}))
	})

	t.Run("Valid Values", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		s := nullString(stdsql.NullString{String: "hi", Valid: true})
		require.NotNil(t, s)
		assert.Equal(t, "hi", *s)

		ts := nullTime(stdsql.NullTime{Time: at, Valid: true})
		require.NotNil(t, ts)
		assert.True(t, at.Equal(*ts))

		n := nullInt(stdsql.NullInt64{Int64: 7, Valid: true})
		require.NotNil(t, n)
		assert.Equal(t, 7, *n)
	})
}

func TestChatListRepository_UnknownKind(t *testing.T) {
	repo := NewChatListRepository(nil)

	assert.Error(t, repo.MarkChatAsRead(context.Background(), "channel", "c1", "u1"))
	assert.Error(t, repo.DeleteChat(context.Background(), "channel", "c1", "u1"))
}
