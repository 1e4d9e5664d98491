package resolve

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/ytbeats/internal/app/library"
	"github.com/osa030/ytbeats/internal/domain/track"
)

// LocalResolver resolves existing files and directories.
// A directory resolves to every audio file below it.
type LocalResolver struct{}

// NewLocalResolver creates a new local resolver.
func NewLocalResolver() *LocalResolver {
	return &LocalResolver{}
}

// Name returns the resolver name.
func (r *LocalResolver) Name() string {
	return NameLocal
}

// Resolve resolves a filesystem path.
func (r *LocalResolver) Resolve(ctx context.Context, input string) ([]track.Track, error) {
	path := expandHome(input)
	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrNotApplicable
	}

	if info.IsDir() {
		return library.NewScanner(path).Tracks()
	}
	if !library.IsAudio(path) {
		return nil, errors.Newf("not an audio file: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return []track.Track{track.NewLocal("", abs)}, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
