package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexdev/devbot/internal/domain/entity"
)

func msg(role entity.Role, text string) entity.Message {
	return entity.Message{Role: role, Text: text, Timestamp: time.Now()}
}

func TestMemoryChatAppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository(0)

	require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleUser, "one")))
	require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleModel, "two")))
	require.NoError(t, repo.Append(ctx, "w2", msg(entity.RoleUser, "other")))

	history, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "two", history[1].Text)

	last, err := repo.History(ctx, "w1", 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "two", last[0].Text)
}

func TestMemoryChatHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository(0)
	require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleUser, "one")))

	history, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	history[0].Text = "edited"

	again, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	assert.Equal(t, "one", again[0].Text)
}

func TestMemoryChatCapDropsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository(2)

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleUser, text)))
	}

	history, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].Text)
	assert.Equal(t, "c", history[1].Text)
}

func TestMemoryChatDrop(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository(0)
	require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleUser, "one")))

	require.NoError(t, repo.Drop(ctx, "w1"))

	history, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryChatUncappedKeepsEverything(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository(0)

	for i := 0; i < 500; i++ {
		require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleUser, "m")))
	}

	history, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 500)
}

func TestMemoryChatWithinCapNeverDrops(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryChatRepository(5)

	texts := []string{"greeting", "q1", "a1", "q2", "a2"}
	for _, text := range texts {
		require.NoError(t, repo.Append(ctx, "w1", msg(entity.RoleUser, text)))
	}

	history, err := repo.History(ctx, "w1", 0)
	require.NoError(t, err)
	require.Len(t, history, len(texts))
	for i, text := range texts {
		assert.Equal(t, text, history[i].Text)
	}
}
