package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/osa030/ytbeats/internal/api/apiv1"
)

// volumeChange is a parsed volume argument: "+5" and "-5" are relative,
// "40" is absolute.
type volumeChange struct {
	Value    int
	Relative bool
}

func parseVolume(arg string) (volumeChange, error) {
	arg = strings.TrimSpace(arg)
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")
	n, err := strconv.Atoi(arg)
	if err != nil {
		return volumeChange{}, errors.Newf("invalid volume %q: expected N, +N or -N", arg)
	}
	return volumeChange{Value: n, Relative: relative}, nil
}

// formatClock renders seconds as m:ss, or h:mm:ss from one hour.
func formatClock(sec float64) string {
	if sec <= 0 {
		return "0:00"
	}
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatProgress(t apiv1.DownloadTask) string {
	out := fmt.Sprintf("%5.1f%%", t.Progress)
	if t.Status != "downloading" {
		return out
	}
	if t.SpeedBps > 0 {
		out += " " + humanize.Bytes(uint64(t.SpeedBps)) + "/s"
	}
	if t.ETASec > 0 {
		out += " eta " + formatClock(float64(t.ETASec))
	}
	return out
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func statusRows(s *apiv1.PlayerStatus) [][]string {
	state := "playing"
	switch {
	case !s.Available:
		state = "unavailable"
	case s.Idle:
		state = "stopped"
	case s.Paused:
		state = "paused"
	}

	rows := [][]string{
		{"Phase", s.Phase},
		{"State", state},
		{"Title", s.Title},
	}
	if s.Artist != "" {
		rows = append(rows, []string{"Artist", s.Artist})
	}
	rows = append(rows,
		[]string{"Position", formatClock(s.PositionSec) + " / " + formatClock(s.DurationSec)},
		[]string{"Volume", fmt.Sprintf("%d%%", s.Volume)},
		[]string{"Queue", fmt.Sprintf("%d/%d (%s)", s.Current+1, s.QueueLength, s.QueueState)},
	)
	if s.Error != "" {
		rows = append(rows, []string{"Error", s.Error})
	}
	return rows
}

func queueRows(q *apiv1.QueueResponse) [][]string {
	rows := make([][]string, 0, len(q.Items))
	for _, it := range q.Items {
		marker := ""
		if it.Index == q.Current {
			marker = "▶"
		}
		rows = append(rows, []string{marker, strconv.Itoa(it.Index + 1), it.Track.Title, it.Track.Origin, it.Status})
	}
	return rows
}

func downloadRows(tasks []apiv1.DownloadTask) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		title := t.Title
		if title == "" {
			title = t.Locator
		}
		detail := t.FinalPath
		if t.Error != "" {
			detail = t.Error
		}
		rows = append(rows, []string{shortID(t.ID), title, t.Group, t.Status, formatProgress(t), formatAge(t.CreatedAt), detail})
	}
	return rows
}

func libraryRows(entries []apiv1.LibraryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Group, e.Title, e.ContentID, humanize.Bytes(uint64(e.Size)), formatAge(e.ModTime)})
	}
	return rows
}

func searchRows(records []apiv1.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Title, r.Uploader, formatClock(r.DurationSec), r.Locator})
	}
	return rows
}

// formatNotification renders one watch line.
func formatNotification(n *apiv1.Notification) string {
	prefix := fmt.Sprintf("[%s] #%d %s", n.Time.Local().Format("15:04:05"), n.SequenceNo, n.Type)
	switch {
	case n.Track != nil:
		line := fmt.Sprintf("%s %d: %s", prefix, n.Index+1, n.Track.Title)
		if n.Message != "" {
			line += " (" + n.Message + ")"
		}
		return line
	case n.Download != nil:
		title := n.Download.Title
		if title == "" {
			title = n.Download.Locator
		}
		line := fmt.Sprintf("%s %s %s", prefix, title, strings.TrimSpace(formatProgress(*n.Download)))
		if n.Download.FinalPath != "" {
			line += " -> " + n.Download.FinalPath
		}
		if n.Message != "" {
			line += " (" + n.Message + ")"
		}
		return line
	case n.Status != nil:
		return fmt.Sprintf("%s %s %q vol=%d%%", prefix, n.Status.Phase, n.Status.Title, n.Status.Volume)
	case n.Message != "":
		return prefix + " " + n.Message
	default:
		return prefix
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
