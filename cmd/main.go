package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Logger:      logger,
		Interactive: true,
	})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		os.Exit(exitCode(err, logger))
	}
}

// exitCode reports err and maps it to a process exit status.
//
// A cancelled selection exits non-zero without a message.
func exitCode(err error, logger *log.Logger) int {
	switch {
	case errors.Is(err, shared.ErrCancelled):
		return 1
	default:
		logger.Error(err.Error())
		return 1
	}
}
