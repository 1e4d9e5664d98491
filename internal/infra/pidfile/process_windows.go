//go:build windows

package pidfile

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

const (
	stillActive  = 259 // GetExitCodeProcess result for a running process
	imageNameLen = 1024
)

// processMatches reports whether pid is running the recorded executable.
// Command lines of other processes are not readable here, so the image name
// stands in for the marker.
func processMatches(pid int, marker, image string) bool {
	if marker == "" || image == "" {
		return false
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil || code != stillActive {
		return false
	}

	buf := make([]uint16, imageNameLen)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return false
	}
	return strings.EqualFold(filepath.Base(windows.UTF16ToString(buf[:size])), image)
}

func terminate(pid int) error {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.TerminateProcess(h, 1)
}
