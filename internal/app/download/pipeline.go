// Package download runs the background download pipeline: a FIFO queue
// served by a single worker.
package download

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/ytbeats/internal/app/filter"
	model "github.com/osa030/ytbeats/internal/domain/download"
	"github.com/osa030/ytbeats/internal/domain/track"
)

var (
	// ErrInvalidGroup is returned when a group would escape the destination directory.
	ErrInvalidGroup = errors.New("invalid download group")
	ErrEmptyLocator = errors.New("locator is empty")
)

const (
	defaultPollInterval = 500 * time.Millisecond
	noticeBufferSize    = 256
)

// Fetcher retrieves and converts one item.
type Fetcher interface {
	Fetch(ctx context.Context, req model.FetchRequest, progress func(model.Progress)) (string, error)
}

// Config holds pipeline configuration.
type Config struct {
	Dir            string        // Destination directory
	PollInterval   time.Duration // Worker idle wake-up interval
	ProgressRate   float64       // Max progress notifications per second
	Timeout        time.Duration // Per-task ceiling; 0 disables
	ConverterProbe func() bool   // Reports whether the conversion tool is installed
}

// Request represents a download request.
type Request struct {
	Locator string
	Title   string
	Group   string // Optional destination subdirectory
}

// notice is a queued observer notification.
type notice struct {
	complete bool
	snap     model.Snapshot
}

// Pipeline accepts download requests and processes them one at a time.
type Pipeline struct {
	cfg     Config
	fetcher Fetcher
	filters *filter.Chain
	limiter *rate.Limiter

	admitMu sync.Mutex // serializes admission so duplicate checks see each other

	mu     sync.RWMutex
	tasks  []*model.Task
	queue  []*model.Task
	active *model.Task

	wake    chan struct{}
	notices chan notice

	obsMu      sync.RWMutex
	onProgress func(model.Snapshot)
	onComplete func(model.Snapshot)
}

// NewPipeline creates a new pipeline. filters run in order before the
// built-in in-flight check.
func NewPipeline(cfg Config, fetcher Fetcher, filters ...filter.Filter) *Pipeline {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	limit := rate.Inf
	if cfg.ProgressRate > 0 {
		limit = rate.Limit(cfg.ProgressRate)
	}

	p := &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		limiter: rate.NewLimiter(limit, 1),
		wake:    make(chan struct{}, 1),
		notices: make(chan notice, noticeBufferSize),
	}

	chain := filter.NewChain(filters...)
	chain.Add(filter.NewInFlightFilter(p))
	p.filters = chain
	return p
}

// OnProgress registers the progress observer. It is called from a
// dispatcher goroutine, never from the worker.
func (p *Pipeline) OnProgress(fn func(model.Snapshot)) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	p.onProgress = fn
}

// OnComplete registers the completion observer, called for both success and failure.
func (p *Pipeline) OnComplete(fn func(model.Snapshot)) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	p.onComplete = fn
}

// Add enqueues a download. Returns model.ErrDuplicate without enqueueing
// if the content is already downloaded or in flight. Never blocks on the worker.
func (p *Pipeline) Add(ctx context.Context, req Request) (*model.Task, error) {
	req.Locator = strings.TrimSpace(req.Locator)
	if req.Locator == "" {
		return nil, ErrEmptyLocator
	}
	group, err := cleanGroup(req.Group)
	if err != nil {
		return nil, err
	}

	p.admitMu.Lock()
	defer p.admitMu.Unlock()

	cand := filter.Candidate{
		Locator:   req.Locator,
		ContentID: track.ContentID(req.Locator),
		Group:     group,
	}
	if result := p.filters.Execute(ctx, cand); !result.Accepted {
		zlog.Info().Msgf("download: duplicate request ignored: locator=%s code=%s", req.Locator, result.Code)
		return nil, errors.Wrapf(model.ErrDuplicate, "%s: %s", result.Code, result.Detail)
	}

	title := req.Title
	if title == "" {
		title = req.Locator
	}
	task := model.NewTask(req.Locator, title, cand.ContentID, group)

	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	p.queue = append(p.queue, task)
	p.mu.Unlock()

	zlog.Info().Msgf("download: task queued: id=%s locator=%s group=%s", task.ID(), req.Locator, group)

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return task, nil
}

// Tasks returns snapshots of all tasks in insertion order.
func (p *Pipeline) Tasks() []model.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snaps := make([]model.Snapshot, len(p.tasks))
	for i, t := range p.tasks {
		snaps[i] = t.Snapshot()
	}
	return snaps
}

// Active returns the task being processed, if any.
func (p *Pipeline) Active() (model.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.active == nil {
		return model.Snapshot{}, false
	}
	return p.active.Snapshot(), true
}

// Pending returns the number of queued tasks not yet started.
func (p *Pipeline) Pending() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.queue)
}

// Run processes queued tasks until ctx is done.
func (p *Pipeline) Run(ctx context.Context) {
	zlog.Info().Msgf("download: worker started: dir=%s", p.cfg.Dir)
	defer zlog.Info().Msg("download: worker stopped")

	go p.dispatch(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		task := p.dequeue()
		if task == nil {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
			case <-time.After(p.cfg.PollInterval):
			}
			continue
		}

		p.process(ctx, task)
	}
}

func (p *Pipeline) dequeue() *model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return nil
	}
	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.active = task
	return task
}

// process runs one task to a terminal state. Panics fail the task.
func (p *Pipeline) process(ctx context.Context, task *model.Task) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("download: panic while processing task: id=%s panic=%v", task.ID(), r)
			p.finish(task, "", errors.Newf("internal error: %v", r))
		}
		p.mu.Lock()
		p.active = nil
		p.mu.Unlock()
	}()

	if err := task.Start(); err != nil {
		zlog.Warn().Msgf("download: task not startable: id=%s error=%v", task.ID(), err)
		return
	}
	zlog.Info().Msgf("download: task started: id=%s locator=%s", task.ID(), task.Locator())
	p.publish(notice{snap: task.Snapshot()})

	if p.cfg.ConverterProbe != nil && !p.cfg.ConverterProbe() {
		p.finish(task, "", model.ErrConversionToolMissing)
		return
	}

	dir := filepath.Join(p.cfg.Dir, task.Group())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.finish(task, "", errors.Wrap(err, "failed to create destination directory"))
		return
	}

	fetchCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	req := model.FetchRequest{
		Locator:   task.Locator(),
		Dir:       dir,
		ContentID: task.ContentID(),
	}
	path, err := p.fetcher.Fetch(fetchCtx, req, func(pr model.Progress) {
		if task.UpdateProgress(pr) && p.limiter.Allow() {
			p.publish(notice{snap: task.Snapshot()})
		}
	})
	p.finish(task, path, err)
}

func (p *Pipeline) finish(task *model.Task, path string, err error) {
	var terr error
	if err != nil {
		zlog.Warn().Msgf("download: task failed: id=%s error=%v", task.ID(), err)
		terr = task.Fail(err.Error())
	} else {
		zlog.Info().Msgf("download: task completed: id=%s path=%s", task.ID(), path)
		terr = task.Complete(path)
	}
	if terr != nil {
		zlog.Debug().Msgf("download: finish ignored: id=%s error=%v", task.ID(), terr)
		return
	}
	p.publish(notice{complete: true, snap: task.Snapshot()})
}

// publish queues a notification for the dispatcher. Progress notices are
// dropped when the buffer is full.
func (p *Pipeline) publish(n notice) {
	if n.complete {
		select {
		case p.notices <- n:
		case <-time.After(time.Second):
			zlog.Warn().Msgf("download: completion notice dropped: id=%s", n.snap.ID)
		}
		return
	}
	select {
	case p.notices <- n:
	default:
	}
}

func (p *Pipeline) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-p.notices:
			p.deliver(n)
		}
	}
}

func (p *Pipeline) deliver(n notice) {
	p.obsMu.RLock()
	fn := p.onProgress
	if n.complete {
		fn = p.onComplete
	}
	p.obsMu.RUnlock()

	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("download: observer panicked: id=%s panic=%v", n.snap.ID, r)
		}
	}()
	fn(n.snap)
}

// cleanGroup normalizes a group name and rejects paths that leave the
// destination directory.
func cleanGroup(group string) (string, error) {
	group = strings.TrimSpace(group)
	if group == "" {
		return "", nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(group))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || cleaned == "." {
		return "", errors.Wrapf(ErrInvalidGroup, "group=%s", group)
	}
	return filepath.ToSlash(cleaned), nil
}
