package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/osa030/ytbeats/internal/domain/download"
)

func TestDownloadEnv(t *testing.T) {
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	env := downloadEnv(model.Snapshot{
		ID:         "task-1",
		Locator:    "https://youtu.be/dQw4w9WgXcQ",
		ContentID:  "dQw4w9WgXcQ",
		Status:     model.StatusCompleted,
		Progress:   100,
		FinalPath:  "/music/Song [dQw4w9WgXcQ].mp3",
		FinishedAt: finished,
	})

	assert.Contains(t, env, "YTBEATS_ID=task-1")
	assert.Contains(t, env, "YTBEATS_CONTENT_ID=dQw4w9WgXcQ")
	assert.Contains(t, env, "YTBEATS_STATUS=completed")
	assert.Contains(t, env, "YTBEATS_PROGRESS=100")
	assert.Contains(t, env, "YTBEATS_GROUP=")
	assert.Contains(t, env, "YTBEATS_FINAL_PATH=/music/Song [dQw4w9WgXcQ].mp3")
	assert.Contains(t, env, "YTBEATS_FINISHED_AT=2026-01-02T03:04:05Z")
	assert.IsIncreasing(t, env)
}

func TestExecuteHooks(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	executeHooks([]string{`printf '%s' "$YTBEATS_ID" > ` + out, "exit 3"}, "test", []string{"YTBEATS_ID=task-9"})

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "task-9", string(data))

	// no hooks is a no-op
	executeHooks(nil, "test", nil)
}
