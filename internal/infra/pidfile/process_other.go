//go:build !unix && !windows

package pidfile

import "os"

// processMatches reports whether pid refers to a process.
// Neither command lines nor image names can be inspected on this platform,
// so a recycled PID is indistinguishable from the recorded player and Reap
// may signal an unrelated process.
func processMatches(pid int, marker, _ string) bool {
	if marker == "" {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
