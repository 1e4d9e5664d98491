// Package library reads the download destination directory as a local
// track collection.
package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/ytbeats/internal/domain/track"
)

// audioExtensions are the file types treated as playable.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".opus": true,
	".ogg":  true,
	".flac": true,
	".wav":  true,
	".webm": true,
	".aac":  true,
}

// Entry is one audio file in the library.
type Entry struct {
	Path      string
	Group     string // subdirectory relative to the root, "" for the root
	Title     string
	ContentID string // "" if the file name carries none
	Size      int64
	ModTime   time.Time
}

// Track converts the entry to a local track.
func (e Entry) Track() track.Track {
	return track.NewLocal(e.Title, e.Path)
}

// Scanner reads a library directory.
type Scanner struct {
	dir string
}

// NewScanner creates a scanner rooted at dir.
func NewScanner(dir string) *Scanner {
	return &Scanner{dir: dir}
}

// Dir returns the library root.
func (s *Scanner) Dir() string {
	return s.dir
}

// Scan walks the library and returns its audio files sorted by group then
// title. A missing root yields an empty library.
func (s *Scanner) Scan() ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			zlog.Debug().Msgf("library: skipping unreadable path: path=%s error=%v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsAudio(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, Entry{
			Path:      path,
			Group:     s.groupOf(path),
			Title:     track.TitleFromFilename(path),
			ContentID: track.ContentID(d.Name()),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan library: dir=%s", s.dir)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Group != entries[j].Group {
			return entries[i].Group < entries[j].Group
		}
		return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
	})
	return entries, nil
}

// Tracks returns every library file as a local track, in Scan order.
func (s *Scanner) Tracks() ([]track.Track, error) {
	entries, err := s.Scan()
	if err != nil {
		return nil, err
	}
	tracks := make([]track.Track, len(entries))
	for i, e := range entries {
		tracks[i] = e.Track()
	}
	return tracks, nil
}

// FindContentID looks for a file carrying id directly inside group.
func (s *Scanner) FindContentID(group, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	dir := filepath.Join(s.dir, group)
	des, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, de := range des {
		if de.IsDir() || !IsAudio(de.Name()) {
			continue
		}
		if track.ContentID(de.Name()) == id {
			return filepath.Join(dir, de.Name()), true
		}
	}
	return "", false
}

// IsAudio reports whether name has a playable audio extension.
func IsAudio(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

func (s *Scanner) groupOf(path string) string {
	rel, err := filepath.Rel(s.dir, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
