// Package cli parses hark's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Command is one hark subcommand.
type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandStop    Command = "stop"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandReload  Command = "reload"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandStats   Command = "stats"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

type commandInfo struct {
	name   Command
	client bool
	usage  string
}

// commands is ordered as printed in the help text.
var commands = []commandInfo{
	{CommandRun, false, "Start the daemon (owns the control socket)"},
	{CommandToggle, true, "Start recording, or stop and process when already recording"},
	{CommandStop, true, "Stop the active recording and process the remaining audio"},
	{CommandCancel, true, "Cancel the active recording and discard buffered audio"},
	{CommandStatus, true, "Print daemon state, mode, hint and pending utterances"},
	{CommandReload, true, "Reload the signal table"},
	{CommandDevices, false, "List available input devices"},
	{CommandDoctor, false, "Run configuration and environment checks"},
	{CommandStats, false, "Print word counts from the transcription log"},
	{CommandVersion, false, "Print version information"},
	{CommandHelp, false, "Show this help"},
}

func lookup(name string) (commandInfo, bool) {
	for _, c := range commands {
		if string(c.name) == name {
			return c, true
		}
	}
	return commandInfo{}, false
}

// IsClient reports whether the command is forwarded to a running daemon.
func (c Command) IsClient() bool {
	info, ok := lookup(string(c))
	return ok && info.client
}

// Parsed is the result of one command line.
type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// Verbose forces debug logging regardless of debug.verbose.
	Verbose bool
}

// Parse reads flags followed by at most one command. No arguments means help.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			parsed.Command, parsed.ShowHelp = CommandHelp, true
		case arg == "--version":
			parsed.Command, parsed.ShowHelp = CommandVersion, false
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "--config":
			i++
			if i >= len(args) || strings.HasPrefix(args[i], "-") {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
			if parsed.ConfigPath == "" {
				return Parsed{}, errors.New("--config requires a path")
			}
		case strings.HasPrefix(arg, "-"):
			return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
		default:
			info, ok := lookup(arg)
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			if rest := args[i+1:]; len(rest) > 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q: %s", arg, strings.Join(rest, " "))
			}
			parsed.Command = info.name
			parsed.ShowHelp = info.name == CommandHelp
		}
	}
	return parsed, nil
}

// HelpText renders usage for binaryName.
func HelpText(binaryName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage:\n  %s [-v] [--config PATH] <command>\n\nCommands:\n", binaryName)
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-9s %s\n", c.name, c.usage)
	}
	b.WriteString(`
Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/hark/config.jsonc)
  -v, --verbose   Debug logging
  -h, --help      Show help
  --version       Show version

Exit codes: 0 ok, 1 runtime failure, 2 usage error.
`)
	return b.String()
}
