package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// progressLogEvery is the row interval between progress log lines when
// stderr is not a terminal.
const progressLogEvery = 100

// progressReporter renders a progress bar on a terminal and falls back to
// periodic log lines otherwise.
type progressReporter struct {
	w   io.Writer
	tty bool
	log *zap.Logger
	bar *progressbar.ProgressBar
}

func newProgressReporter(w io.Writer, tty bool, log *zap.Logger) *progressReporter {
	return &progressReporter{w: w, tty: tty, log: log}
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Update records that done of total rows have been processed.
func (r *progressReporter) Update(done, total int) {
	if r.tty {
		if r.bar == nil {
			r.bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Reverse geocoding"),
				progressbar.OptionSetWriter(r.w),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = r.bar.Set(done)
		return
	}

	if done == total || done%progressLogEvery == 0 {
		r.log.Info("reverse progress", zap.Int("done", done), zap.Int("total", total))
	}
}

// Finish clears the bar, if one was drawn.
func (r *progressReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
