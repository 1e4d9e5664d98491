// Package pidfile records the player processes spawned by each ytbeats
// instance so that a later instance can terminate the ones left behind by
// a crash, without touching processes it did not spawn.
//
// Every instance holds an exclusive lock on <prefix>-<id>.lock for its
// lifetime and writes the spawned PID, a command line marker and the
// executable's image name to <prefix>-<id>.pid. A record whose lock can be
// taken belongs to an instance that is gone.
package pidfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	zlog "github.com/rs/zerolog/log"
)

// ErrLocked is returned when a record is already held by another instance.
var ErrLocked = errors.New("pid record is locked by another instance")

// Registry manages pid records in a directory.
type Registry struct {
	dir    string
	prefix string

	// process hooks, replaced in tests
	matches func(pid int, marker, image string) bool
	kill    func(pid int) error
}

// Record is a pid record owned by this instance.
type Record struct {
	id      string
	pidPath string
	lock    *flock.Flock
}

// Orphan describes a record left behind by a dead instance.
type Orphan struct {
	ID     string
	PID    int
	Marker string
	Image  string
	Killed bool
}

// entry is the content of a pid file.
type entry struct {
	pid    int
	marker string
	image  string
}

// New creates a registry rooted at dir. Files are named <prefix>-<id>.{lock,pid}.
func New(dir, prefix string) *Registry {
	return &Registry{
		dir:     dir,
		prefix:  prefix,
		matches: processMatches,
		kill:    terminate,
	}
}

// Acquire creates and locks the record for id.
func (r *Registry) Acquire(id string) (*Record, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create runtime directory")
	}

	lock := flock.New(r.lockPath(id))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock pid record")
	}
	if !ok {
		return nil, errors.Wrapf(ErrLocked, "id=%s", id)
	}

	return &Record{
		id:      id,
		pidPath: r.pidPath(id),
		lock:    lock,
	}, nil
}

// ID returns the record ID.
func (rec *Record) ID() string { return rec.id }

// Write stores the spawned PID with the marker and image name used to
// recognise the process later.
func (rec *Record) Write(pid int, marker, image string) error {
	data := fmt.Sprintf("%d\n%s\n%s\n", pid, marker, image)
	if err := os.WriteFile(rec.pidPath, []byte(data), 0o644); err != nil {
		return errors.Wrap(err, "failed to write pid record")
	}
	return nil
}

// Release removes the record and drops the lock.
func (rec *Record) Release() error {
	if err := os.Remove(rec.pidPath); err != nil && !os.IsNotExist(err) {
		zlog.Debug().Msgf("pidfile: failed to remove pid file: path=%s error=%v", rec.pidPath, err)
	}
	lockPath := rec.lock.Path()
	if err := rec.lock.Unlock(); err != nil {
		return errors.Wrap(err, "failed to unlock pid record")
	}
	_ = os.Remove(lockPath)
	return nil
}

// Reap terminates the processes recorded by dead instances and removes their
// records. Records held by live instances are left alone. A process is only
// signalled when it still carries the recorded marker on its command line,
// or the recorded image name where command lines are not readable.
func (r *Registry) Reap() ([]Orphan, error) {
	locks, err := filepath.Glob(filepath.Join(r.dir, r.prefix+"-*.lock"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pid records")
	}

	var orphans []Orphan
	for _, lockPath := range locks {
		id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(lockPath), r.prefix+"-"), ".lock")

		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil || !ok {
			continue
		}

		orphan := Orphan{ID: id}
		e, readErr := readRecord(r.pidPath(id))
		if readErr == nil {
			orphan.PID = e.pid
			orphan.Marker = e.marker
			orphan.Image = e.image
			if r.matches(e.pid, e.marker, e.image) {
				if err := r.kill(e.pid); err != nil {
					zlog.Warn().Msgf("pidfile: failed to terminate orphan: id=%s pid=%d error=%v", id, e.pid, err)
				} else {
					orphan.Killed = true
				}
			}
		}

		_ = os.Remove(r.pidPath(id))
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
		orphans = append(orphans, orphan)
	}

	return orphans, nil
}

func (r *Registry) lockPath(id string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s-%s.lock", r.prefix, id))
}

func (r *Registry) pidPath(id string) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s-%s.pid", r.prefix, id))
}

func readRecord(path string) (entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return entry{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return entry{}, errors.New("empty pid record")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || pid <= 0 {
		return entry{}, errors.Newf("invalid pid in record: %q", scanner.Text())
	}

	e := entry{pid: pid}
	if scanner.Scan() {
		e.marker = strings.TrimSpace(scanner.Text())
	}
	if scanner.Scan() {
		e.image = strings.TrimSpace(scanner.Text())
	}
	return e, nil
}
