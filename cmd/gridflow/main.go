package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/gridflow/internal/app"
	"github.com/specialistvlad/gridflow/internal/cli"
	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/hcl"
	"github.com/specialistvlad/gridflow/internal/workflow"
)

const (
	exitOK     = 0
	exitFailed = 1
)

// main is the entrypoint for the gridflow application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}

// run encapsulates the main application logic and maps its outcome to an
// exit code.
func run(ctx context.Context, outW, errW io.Writer, args []string) int {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(errW, exitErr.Message)
			return exitErr.Code
		}
		fmt.Fprintln(errW, err)
		return exitFailed
	}
	if shouldExit {
		return exitOK
	}

	gridflowApp, err := app.NewApp(outW, inv.Config, hcl.NewLoader())
	if err != nil {
		fmt.Fprintln(errW, err)
		return cli.ExitUsage
	}

	switch inv.Command {
	case "list":
		if err := gridflowApp.List(outW); err != nil {
			fmt.Fprintln(errW, err)
			return exitFailed
		}
		return exitOK
	default:
		_, err := gridflowApp.Run(ctx)
		return exitCode(errW, err)
	}
}

// exitCode reports err and classifies it: a broken workflow definition is a
// usage error, anything else that stopped the root from completing is a
// failure.
func exitCode(errW io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(errW, err)

	var runErr *app.RunError
	switch {
	case errors.As(err, &runErr):
		return exitFailed
	case errors.Is(err, workflow.ErrUnknownTask),
		errors.Is(err, graph.ErrCyclicDependency),
		errors.Is(err, graph.ErrUnresolvedOutput),
		errors.Is(err, graph.ErrDuplicateOutput):
		return cli.ExitUsage
	default:
		return exitFailed
	}
}
