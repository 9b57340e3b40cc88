package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/progress"
)

// progressConfig decides whether a bar is drawn and where.
type progressConfig struct {
	enabled bool
	writer  io.Writer
}

// newProgressConfig enables the bar only on an interactive stderr.
func newProgressConfig(quiet bool) progressConfig {
	return progressConfig{
		enabled: !quiet && isatty.IsTerminal(os.Stderr.Fd()),
		writer:  os.Stderr,
	}
}

// newProgressBar returns nil when progress is disabled.
func newProgressBar(cfg progressConfig, file string) *progressbar.ProgressBar {
	if !cfg.enabled {
		return nil
	}
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(filepath.Base(file)),
		progressbar.OptionSetWriter(cfg.writer),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// watch follows a job to its terminal state, advancing bar if non-nil.
func watch(sub *progress.Subscription, bar *progressbar.ProgressBar) (domain.JobState, error) {
	var last domain.JobState
	for state := range sub.C() {
		last = state
		if bar != nil {
			_ = bar.Set(state.Progress)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return last, sub.Err()
}
