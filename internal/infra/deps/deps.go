// Package deps resolves and reports the external binaries ytbeats drives.
package deps

import (
	"fmt"
	"strings"
)

// Well-known commands.
const (
	CommandPlayer    = "mpv"
	CommandRetriever = "yt-dlp"
	CommandConverter = "ffmpeg"
)

// Requirement defines an external binary.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Fallbacks   []string // Absolute paths tried when Command is not on PATH
}

// Status reports the availability of a binary.
type Status struct {
	Name        string
	Command     string
	Path        string // Resolved path, empty if unavailable
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the binaries used by the player and the download pipeline.
func Requirements(player, retriever, converter string) []Requirement {
	return []Requirement{
		{
			Name:        "mpv",
			Command:     orDefault(player, CommandPlayer),
			Description: "Playback engine",
			Fallbacks:   PlayerFallbacks(),
		},
		{
			Name:        "yt-dlp",
			Command:     orDefault(retriever, CommandRetriever),
			Description: "Stream resolution, search and downloads",
			Optional:    true,
		},
		{
			Name:        "ffmpeg",
			Command:     orDefault(converter, CommandConverter),
			Description: "Audio conversion for downloads",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := Lookup(cmd, req.Fallbacks...)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) binaries that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
