package pidfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type process struct {
	marker string
	image  string
}

type fakeProcesses struct {
	alive  map[int]process
	killed []int
}

func (f *fakeProcesses) matches(pid int, marker, image string) bool {
	p, ok := f.alive[pid]
	return ok && p.marker == marker && p.image == image
}

func (f *fakeProcesses) kill(pid int) error {
	f.killed = append(f.killed, pid)
	delete(f.alive, pid)
	return nil
}

func newTestRegistry(t *testing.T, procs *fakeProcesses) *Registry {
	t.Helper()
	r := New(t.TempDir(), "mpv")
	r.matches = procs.matches
	r.kill = procs.kill
	return r
}

func TestRecord_AcquireWriteRelease(t *testing.T) {
	r := New(t.TempDir(), "mpv")

	rec, err := r.Acquire("one")
	require.NoError(t, err)
	assert.Equal(t, "one", rec.ID())

	require.NoError(t, rec.Write(4242, "/tmp/mpv-one.sock", "mpv"))
	e, err := readRecord(r.pidPath("one"))
	require.NoError(t, err)
	assert.Equal(t, entry{pid: 4242, marker: "/tmp/mpv-one.sock", image: "mpv"}, e)

	_, err = r.Acquire("one")
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, rec.Release())
	_, err = os.Stat(r.pidPath("one"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(r.lockPath("one"))
	assert.True(t, os.IsNotExist(err))
}

func TestRegistry_Reap(t *testing.T) {
	procs := &fakeProcesses{alive: map[int]process{
		100: {marker: "/run/mpv-dead.sock", image: "mpv.exe"},
		200: {marker: "/run/mpv-live.sock", image: "mpv.exe"},
		300: {marker: "something else", image: "mpv.exe"},
		400: {marker: "/run/mpv-other.sock", image: "notepad.exe"},
	}}
	r := newTestRegistry(t, procs)

	// live instance keeps its lock
	live, err := r.Acquire("live")
	require.NoError(t, err)
	require.NoError(t, live.Write(200, "/run/mpv-live.sock", "mpv.exe"))
	defer live.Release()

	// dead instance: files exist, nobody holds the lock
	require.NoError(t, os.WriteFile(r.lockPath("dead"), nil, 0o644))
	require.NoError(t, os.WriteFile(r.pidPath("dead"), []byte("100\n/run/mpv-dead.sock\nmpv.exe\n"), 0o644))

	// dead instance whose pid was reused by an unrelated process
	require.NoError(t, os.WriteFile(r.lockPath("reused"), nil, 0o644))
	require.NoError(t, os.WriteFile(r.pidPath("reused"), []byte("300\n/run/mpv-reused.sock\nmpv.exe\n"), 0o644))

	// dead instance whose pid now runs a different executable
	require.NoError(t, os.WriteFile(r.lockPath("other"), nil, 0o644))
	require.NoError(t, os.WriteFile(r.pidPath("other"), []byte("400\n/run/mpv-other.sock\nmpv.exe\n"), 0o644))

	// dead instance that crashed before writing a pid
	require.NoError(t, os.WriteFile(r.lockPath("early"), nil, 0o644))

	orphans, err := r.Reap()
	require.NoError(t, err)
	require.Len(t, orphans, 4)

	byID := make(map[string]Orphan)
	for _, o := range orphans {
		byID[o.ID] = o
	}
	assert.True(t, byID["dead"].Killed)
	assert.Equal(t, 100, byID["dead"].PID)
	assert.False(t, byID["reused"].Killed)
	assert.False(t, byID["other"].Killed)
	assert.Equal(t, "mpv.exe", byID["other"].Image)
	assert.False(t, byID["early"].Killed)
	assert.Equal(t, []int{100}, procs.killed)

	remaining, err := filepath.Glob(filepath.Join(r.dir, "mpv-*"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{r.lockPath("live"), r.pidPath("live")}, remaining)
}

func TestReadRecord_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pid")

	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o644))
	_, err := readRecord(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err = readRecord(path)
	assert.Error(t, err)

	// records without an image line still parse
	require.NoError(t, os.WriteFile(path, []byte("77\n/run/mpv-x.sock\n"), 0o644))
	e, err := readRecord(path)
	require.NoError(t, err)
	assert.Equal(t, entry{pid: 77, marker: "/run/mpv-x.sock"}, e)
}
