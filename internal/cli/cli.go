// Package cli parses the hotscribe command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandStop    Command = "stop"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandHotkey  Command = "hotkey"
	CommandModels  Command = "models"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// commandArgs maps each command to how many positional arguments it takes:
// the minimum and maximum.
var commandArgs = map[Command][2]int{
	CommandRun:     {0, 0},
	CommandToggle:  {0, 0},
	CommandStop:    {0, 0},
	CommandCancel:  {0, 0},
	CommandStatus:  {0, 0},
	CommandDevices: {0, 0},
	CommandDoctor:  {0, 0},
	CommandHotkey:  {1, 1},
	CommandModels:  {0, 1},
	CommandVersion: {0, 0},
	CommandHelp:    {0, 0},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			bounds, ok := commandArgs[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			rest := args[i+1:]
			if len(rest) > bounds[1] {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			if len(rest) < bounds[0] {
				return Parsed{}, fmt.Errorf("command %q requires an argument", arg)
			}
			for _, extra := range rest {
				if strings.HasPrefix(extra, "-") {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
			}

			parsed.Command = cmd
			parsed.Args = append([]string(nil), rest...)
			parsed.ShowHelp = cmd == CommandHelp
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [ARG]

Commands:
  run           Listen for the configured hotkeys until interrupted
  toggle        Start recording, or stop and transcribe when recording
  stop          Stop the active recording and transcribe it
  cancel        Discard the active recording
  status        Print the current state of the running instance
  devices       List available input devices
  doctor        Run configuration and environment checks
  hotkey SPEC   Check a hotkey spec such as ctrl+shift+r
  models [ENGINE]
                List known transcription models
  version       Print version information
  help          Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/hotscribe/config.jsonc)
  -h, --help      Show help
  --version       Show version

Exit status:
  0 success, 1 failure, 2 usage error, 3 owner busy transcribing
`, binaryName)
}
