package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present")

	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	require.Len(t, results, len(reqs))

	assert.True(t, results[0].Available)
	assert.Equal(t, present, results[0].Path)
	assert.Empty(t, results[0].Detail)

	assert.False(t, results[1].Available)
	assert.Equal(t, "clearly-not-present-binary", results[1].Command)
	assert.NotEmpty(t, results[1].Detail)

	assert.False(t, results[2].Available)
	assert.Equal(t, "command not configured", results[2].Detail)
}

func TestLookup_Fallbacks(t *testing.T) {
	dir := t.TempDir()
	fallback := writeStub(t, dir, "player")
	notExec := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(notExec, []byte("x"), 0o644))

	path, err := Lookup("clearly-not-present-binary", filepath.Join(dir, "nope"), notExec, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, path)

	_, err = Lookup("clearly-not-present-binary", notExec)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "converter")

	probe := Probe(target)
	assert.False(t, probe())

	writeStub(t, dir, "converter")
	assert.True(t, probe(), "probe re-evaluates on each call")
}

func TestMissing(t *testing.T) {
	statuses := []Status{
		{Name: "mpv", Available: false},
		{Name: "yt-dlp", Available: false, Optional: true},
		{Name: "ffmpeg", Available: true},
	}

	missing := Missing(statuses)
	require.Len(t, missing, 1)
	assert.Equal(t, "mpv", missing[0].Name)
}

func TestRequirements_Defaults(t *testing.T) {
	reqs := Requirements("", "/opt/yt-dlp", "")
	require.Len(t, reqs, 3)
	assert.Equal(t, CommandPlayer, reqs[0].Command)
	assert.False(t, reqs[0].Optional)
	assert.Equal(t, "/opt/yt-dlp", reqs[1].Command)
	assert.Equal(t, CommandConverter, reqs[2].Command)
}
