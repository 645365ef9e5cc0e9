package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexdev/devbot/internal/domain/entity"
)

func TestSQLiteTranscriptRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteTranscriptRepository(filepath.Join(t.TempDir(), "data", "transcript.db"))
	require.NoError(t, err)
	defer repo.Close()

	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	exchanges := []entity.Exchange{
		{ID: "1", WidgetID: "w1", Question: "What is your stack?", Answer: "React, TypeScript, Node.js.", Outcome: entity.OutcomeReply, AskedAt: base, AnsweredAt: base.Add(time.Second)},
		{ID: "2", WidgetID: "w2", Question: "hi", Answer: "demo", Outcome: entity.OutcomeDemo, AskedAt: base.Add(time.Minute), AnsweredAt: base.Add(time.Minute)},
		{ID: "3", WidgetID: "w1", Question: "and?", Answer: "sorry", Outcome: entity.OutcomeApology, AskedAt: base.Add(2 * time.Minute), AnsweredAt: base.Add(2 * time.Minute)},
	}
	for _, ex := range exchanges {
		require.NoError(t, repo.SaveExchange(ctx, ex))
	}

	got, err := repo.ListExchanges(ctx, "w1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, entity.OutcomeReply, got[0].Outcome)
	assert.True(t, got[0].AskedAt.Equal(base))
	assert.Equal(t, "3", got[1].ID)

	latest, err := repo.ListExchanges(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "3", latest[0].ID)
}

func TestSQLiteTranscriptRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteTranscriptRepository("")
	assert.Error(t, err)
}

func TestSQLiteTranscriptDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteTranscriptRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	ex := entity.Exchange{ID: "dup", WidgetID: "w", Question: "q", Answer: "a", Outcome: entity.OutcomeReply, AskedAt: time.Now(), AnsweredAt: time.Now()}
	require.NoError(t, repo.SaveExchange(ctx, ex))
	assert.Error(t, repo.SaveExchange(ctx, ex))
}
