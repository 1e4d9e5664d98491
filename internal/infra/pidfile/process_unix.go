//go:build unix

package pidfile

import (
	"bytes"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// processMatches reports whether pid is alive and, where the platform
// exposes command lines, still carries marker. The image name is not
// consulted: the marker is stricter.
func processMatches(pid int, marker, _ string) bool {
	if err := unix.Kill(pid, 0); err != nil && err != unix.EPERM {
		return false
	}
	if marker == "" {
		return false
	}

	cmdline, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/cmdline")
	if err != nil {
		// no procfs (darwin, bsd): liveness is all we can check
		return os.IsNotExist(err) && !procfsAvailable()
	}
	return bytes.Contains(cmdline, []byte(marker))
}

func procfsAvailable() bool {
	_, err := os.Stat("/proc/self/cmdline")
	return err == nil
}

func terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}
