package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	model "github.com/osa030/ytbeats/internal/domain/download"
)

const envPrefix = "YTBEATS_"

// executeHooks runs a list of shell commands with extra environment variables.
func executeHooks(hooks []string, stage string, env []string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = append(os.Environ(), env...)

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}

// hookEnv is the download summary passed to on_download_completed hooks.
type hookEnv struct {
	ID         string  `mapstructure:"id"`
	Locator    string  `mapstructure:"locator"`
	Title      string  `mapstructure:"title"`
	ContentID  string  `mapstructure:"content_id"`
	Group      string  `mapstructure:"group"`
	Status     string  `mapstructure:"status"`
	Progress   float64 `mapstructure:"progress"`
	FinalPath  string  `mapstructure:"final_path"`
	Error      string  `mapstructure:"error"`
	FinishedAt string  `mapstructure:"finished_at"`
}

// downloadEnv exposes a finished download to hooks as YTBEATS_* variables,
// e.g. YTBEATS_FINAL_PATH.
func downloadEnv(s model.Snapshot) []string {
	src := hookEnv{
		ID:        s.ID,
		Locator:   s.Locator,
		Title:     s.Title,
		ContentID: s.ContentID,
		Group:     s.Group,
		Status:    s.Status.String(),
		Progress:  s.Progress,
		FinalPath: s.FinalPath,
		Error:     s.Error,
	}
	if !s.FinishedAt.IsZero() {
		src.FinishedAt = s.FinishedAt.Format(time.RFC3339)
	}

	fields := map[string]interface{}{}
	if err := mapstructure.Decode(src, &fields); err != nil {
		zlog.Warn().Msgf("Failed to build hook environment: %v", err)
		return nil
	}

	env := make([]string, 0, len(fields))
	for k, v := range fields {
		env = append(env, envPrefix+strings.ToUpper(k)+"="+fmt.Sprint(v))
	}
	sort.Strings(env)
	return env
}
