package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned when a binary cannot be resolved.
var ErrNotFound = errors.New("binary not found")

// Lookup resolves a command to an absolute path.
// The command is searched on PATH (or used directly if it contains a path
// separator); the fallbacks are tried in order afterwards. On Windows a
// .com launcher is swapped for the .exe next to it.
func Lookup(command string, fallbacks ...string) (string, error) {
	command = strings.TrimSpace(command)
	if command != "" {
		if path, err := exec.LookPath(command); err == nil {
			return preferExe(path), nil
		}
	}

	for _, candidate := range fallbacks {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate, nil
		}
	}

	return "", errors.Wrapf(ErrNotFound, "%q", command)
}

// Probe returns a presence check for a command, evaluated on every call.
func Probe(command string) func() bool {
	return func() bool {
		_, err := Lookup(command)
		return err == nil
	}
}

// PlayerFallbacks returns the well-known install locations of the player
// binary on this platform.
func PlayerFallbacks() []string {
	if runtime.GOOS != "windows" {
		return nil
	}
	fallbacks := []string{
		`C:\ProgramData\chocolatey\lib\mpvio.install\tools\mpv.exe`,
		`C:\ProgramData\chocolatey\bin\mpv.exe`,
		`C:\mpv\mpv.exe`,
	}
	if home, err := os.UserHomeDir(); err == nil {
		fallbacks = append(fallbacks, filepath.Join(home, "mpv.exe"))
	}
	return fallbacks
}

func preferExe(path string) string {
	if runtime.GOOS != "windows" || !strings.EqualFold(filepath.Ext(path), ".com") {
		return path
	}
	exe := strings.TrimSuffix(path, filepath.Ext(path)) + ".exe"
	if _, err := os.Stat(exe); err == nil {
		return exe
	}
	return path
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
