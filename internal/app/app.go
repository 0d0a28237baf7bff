// Package app dispatches parsed commands to the daemon, the control
// client, and the diagnostic commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/hark/internal/cli"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/doctor"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/pipeline"
	"github.com/rbright/hark/internal/version"
)

const binaryName = "hark"

// Runner executes one command line.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Open overrides audio capture for the daemon. Nil uses PulseAudio.
	Open pipeline.Opener
}

// Execute runs args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	logRuntime.SetVerbose(parsed.Verbose || loaded.Config.Debug.Verbose)
	verboseWarnings := parsed.Command == cli.CommandRun || parsed.Command == cli.CommandDoctor
	r.reportWarnings(logger, loaded.Warnings, verboseWarnings)

	logger.Info("command start",
		"command", parsed.Command,
		"config", loaded.Path,
		"log", logRuntime.Path,
	)

	switch {
	case parsed.Command == cli.CommandRun:
		return r.commandRun(ctx, loaded, logger)
	case parsed.Command == cli.CommandStatus:
		return r.commandStatus(ctx)
	case parsed.Command.IsClient():
		return r.forwardOrFail(ctx, string(parsed.Command))
	case parsed.Command == cli.CommandDoctor:
		report := doctor.Run(ctx, loaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case parsed.Command == cli.CommandDevices:
		return r.commandDevices(ctx)
	case parsed.Command == cli.CommandStats:
		return r.commandStats(ctx, loaded.Config)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// reportWarnings logs config warnings. Control commands keep stderr quiet.
func (r Runner) reportWarnings(logger *slog.Logger, warnings []config.Warning, toStderr bool) {
	for _, w := range warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if toStderr {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
}
