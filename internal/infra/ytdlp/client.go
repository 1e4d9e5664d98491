// Package ytdlp binds the yt-dlp retrieval utility: catalog search, collection
// resolution and audio download with conversion.
package ytdlp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	goytdlp "github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/ytbeats/internal/domain/download"
	"github.com/osa030/ytbeats/internal/domain/playlist"
	"github.com/osa030/ytbeats/internal/domain/track"
)

const (
	defaultSearchLimit      = 10
	defaultProgressInterval = 500 * time.Millisecond
	outputTemplate          = "%(title)s [%(id)s].%(ext)s"
)

// Config represents retrieval client configuration.
type Config struct {
	Binary           string        // yt-dlp path; PATH lookup if empty
	AudioFormat      string        // e.g. mp3
	AudioQuality     string        // e.g. 192K
	MaxRetries       int           // attempts for search and resolve
	RetryDelay       time.Duration // base back-off between attempts
	Timeout          time.Duration // per search or resolve call
	ProgressInterval time.Duration // progress callback frequency
}

// Client runs yt-dlp.
type Client struct {
	cfg        Config
	maxRetries int
	retryDelay time.Duration
	run        runFunc
}

// runFunc executes a prepared command against target and returns the
// extracted entries.
type runFunc func(ctx context.Context, cmd *goytdlp.Command, target string) ([]entry, error)

// entry is the part of yt-dlp's info JSON the client reads.
type entry struct {
	ID       string
	Title    string
	Uploader string
	Duration time.Duration
	Filename string
	Entries  []entry
}

// New creates a new retrieval client.
func New(cfg Config) *Client {
	if cfg.AudioFormat == "" {
		cfg.AudioFormat = "mp3"
	}
	if cfg.AudioQuality == "" {
		cfg.AudioQuality = "192K"
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Client{
		cfg:        cfg,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		run:        runCommand,
	}
}

// Search returns up to limit catalog records matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]track.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	target := fmt.Sprintf("ytsearch%d:%s", limit, query)
	var records []track.Record
	err := c.retry(ctx, func() error {
		entries, err := c.run(ctx, c.command().FlatPlaylist().DumpSingleJSON(), target)
		if err != nil {
			return err
		}
		records = toRecords(entries)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search: query=%s", query)
	}

	if len(records) > limit {
		records = records[:limit]
	}
	zlog.Debug().Msgf("ytdlp: search finished: query=%s results=%d", query, len(records))
	return records, nil
}

// ResolveCollection lists the entries of a collection locator.
func (c *Client) ResolveCollection(ctx context.Context, locator string) (*playlist.Playlist, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var root entry
	err := c.retry(ctx, func() error {
		entries, err := c.run(ctx, c.command().FlatPlaylist().DumpSingleJSON(), locator)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("retriever returned no collection info")
		}
		root = entries[0]
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve collection: locator=%s", locator)
	}

	pl := &playlist.Playlist{
		ID:      root.ID,
		Name:    root.Title,
		URL:     locator,
		Records: toRecords(root.Entries),
	}
	zlog.Debug().Msgf("ytdlp: collection resolved: name=%s entries=%d", pl.Name, len(pl.Records))
	return pl, nil
}

// Fetch downloads the best audio stream of req.Locator into req.Dir as
// "Title [id].ext", converts it to the configured format and returns the
// final path. progress is called from the retriever's output reader.
func (c *Client) Fetch(ctx context.Context, req download.FetchRequest, progress func(download.Progress)) (string, error) {
	cmd := c.command().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(c.cfg.AudioFormat).
		AudioQuality(c.cfg.AudioQuality).
		Output(filepath.Join(req.Dir, outputTemplate)).
		NoPlaylist().
		PrintJSON()

	if progress != nil {
		cmd.ProgressFunc(c.cfg.ProgressInterval, func(update goytdlp.ProgressUpdate) {
			progress(toProgress(update))
		})
	}

	entries, err := c.run(ctx, cmd, req.Locator)
	if err != nil {
		return "", errors.Wrapf(err, "failed to download: locator=%s", req.Locator)
	}

	id := req.ContentID
	if id == "" && len(entries) > 0 {
		id = entries[0].ID
	}
	if path := findDownloaded(req.Dir, id, c.cfg.AudioFormat); path != "" {
		return path, nil
	}
	if len(entries) > 0 && entries[0].Filename != "" {
		converted := strings.TrimSuffix(entries[0].Filename, filepath.Ext(entries[0].Filename)) + "." + c.cfg.AudioFormat
		if _, err := os.Stat(converted); err == nil {
			return converted, nil
		}
	}
	return "", errors.Newf("download finished but no output file was found: locator=%s", req.Locator)
}

func (c *Client) command() *goytdlp.Command {
	cmd := goytdlp.New()
	if c.cfg.Binary != "" {
		cmd.SetExecutable(c.cfg.Binary)
	}
	return cmd
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// retry retries an operation with linear back-off.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			zlog.Debug().Msgf("ytdlp: retrying: attempt=%d error=%v", i+1, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "http error 429") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "http error 5") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "temporary failure in name resolution")
}

func runCommand(ctx context.Context, cmd *goytdlp.Command, target string) ([]entry, error) {
	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, err
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		zlog.Debug().Msgf("ytdlp: no info json in output: error=%v", err)
		return nil, nil
	}

	entries := make([]entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, toEntry(info))
	}
	return entries, nil
}

func toEntry(info *goytdlp.ExtractedInfo) entry {
	if info == nil {
		return entry{}
	}
	e := entry{
		ID:       info.ID,
		Title:    deref(info.Title),
		Uploader: deref(info.Uploader),
		Filename: deref(info.Filename),
	}
	if info.Duration != nil {
		e.Duration = time.Duration(*info.Duration * float64(time.Second))
	}
	for _, child := range info.Entries {
		e.Entries = append(e.Entries, toEntry(child))
	}
	return e
}

// toRecords flattens entries into records, skipping entries without a
// valid content ID.
func toRecords(entries []entry) []track.Record {
	var records []track.Record
	for _, e := range entries {
		if len(e.Entries) > 0 {
			records = append(records, toRecords(e.Entries)...)
			continue
		}
		if track.ContentID(e.ID) == "" {
			continue
		}
		records = append(records, track.Record{
			ID:       e.ID,
			Title:    e.Title,
			Uploader: e.Uploader,
			Duration: e.Duration,
		})
	}
	return records
}

func toProgress(update goytdlp.ProgressUpdate) download.Progress {
	var p download.Progress

	if update.TotalBytes > 0 {
		p.Percent = float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
	}
	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			p.Speed = float64(update.DownloadedBytes) / elapsed.Seconds()
		}
	}
	if eta := update.ETA(); eta > 0 {
		p.ETA = eta
	}
	if update.Info != nil {
		p.Title = deref(update.Info.Title)
	}
	return p
}

// findDownloaded returns the file in dir tagged with "[id]", preferring the
// converted format. Returns "" if none is found.
func findDownloaded(dir, id, format string) string {
	if id == "" {
		return ""
	}
	des, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	tag := "[" + id + "]"
	var candidates []string
	for _, de := range des {
		if de.IsDir() || !strings.Contains(de.Name(), tag) {
			continue
		}
		if strings.HasSuffix(de.Name(), ".part") || strings.HasSuffix(de.Name(), ".ytdl") {
			continue
		}
		candidates = append(candidates, de.Name())
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return strings.EqualFold(filepath.Ext(candidates[i]), "."+format) &&
			!strings.EqualFold(filepath.Ext(candidates[j]), "."+format)
	})
	return filepath.Join(dir, candidates[0])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
