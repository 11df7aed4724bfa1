// Command greentrail estimates and collects event participants' CO2 footprints.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/greentrail/internal/cli"
	"github.com/rshade/greentrail/internal/questionnaire"
	"github.com/rshade/greentrail/pkg/version"
)

// Process exit codes.
const (
	exitOK               = 0
	exitError            = 1
	exitSubmissionFailed = 2
)

func run(ctx context.Context, args []string) error {
	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// exitCode maps a command error to the process exit code. A submission the
// sink rejected gets its own code so scripts can retry it.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, questionnaire.ErrSubmissionFailed):
		return exitSubmissionFailed
	default:
		return exitError
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
