package eventstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppendAndReadBack(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "audit.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(ctx, "vs-1", "utt-1", TypeTranscriptFinal, []byte(`{"text":"two soul bowls"}`)))
	require.NoError(t, store.Append(ctx, "vs-1", "utt-1", TypeItemsDetected, []byte(`{"items":[{"name":"soul bowl","quantity":2}]}`)))
	require.NoError(t, store.Append(ctx, "vs-2", "utt-9", TypeTranscriptFinal, []byte(`{"text":"just water"}`)))

	events, err := store.SessionEvents(ctx, "vs-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, TypeTranscriptFinal, events[0].Type)
	assert.Equal(t, TypeItemsDetected, events[1].Type)
	// Both sides of the utterance share the id for attribution
	assert.Equal(t, events[0].UtteranceID, events[1].UtteranceID)

	other, err := store.SessionEvents(ctx, "vs-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSessionEventsEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "audit.db"), zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	events, err := store.SessionEvents(ctx, "vs-none")
	require.NoError(t, err)
	assert.Empty(t, events)
}
