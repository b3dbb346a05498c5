// Package app wires the CLI commands to the runtime components.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/cli"
	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/doctor"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/hotkey"
	"github.com/rbright/hotscribe/internal/hotkey/uiohook"
	"github.com/rbright/hotscribe/internal/ipc"
	"github.com/rbright/hotscribe/internal/logging"
	"github.com/rbright/hotscribe/internal/version"
)

const binaryName = "hotscribe"

// Exit statuses beyond 0 (success), 1 (failure) and 2 (usage).
const exitBusy = 3

// Runner executes one CLI invocation. Zero-valued hooks select the real
// platform implementations.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Driver captures audio; defaults to PulseAudio.
	Driver audio.Driver
	// Keys is the global key tap; defaults to libuiohook.
	Keys hotkey.Source
}

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

	switch parsed.Command {
	case cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	case cli.CommandHotkey:
		return r.commandHotkey(parsed.Args[0])
	case cli.CommandModels:
		return r.commandModels(parsed.Args)
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.LogLevel)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"env", cfgLoaded.EnvApplied,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, r.driver())
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandToggle:
		return r.forwardOrFail(ctx, ipc.CommandToggle)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) driver() audio.Driver {
	if r.Driver != nil {
		return r.Driver
	}
	return audio.NewPulseDriver(binaryName)
}

func (r Runner) keys() hotkey.Source {
	if r.Keys != nil {
		return r.Keys
	}
	return uiohook.New()
}

func (r Runner) commandHotkey(spec string) int {
	key, err := hotkey.Parse(spec)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "%s (keycode %d, modifiers %#04x)\n", key, key.Code, key.Mods.Flags())
	return 0
}

func (r Runner) commandModels(args []string) int {
	engine := ""
	if len(args) > 0 {
		engine = strings.ToLower(strings.TrimSpace(args[0]))
	}

	models := asr.Models(engine)
	if len(models) == 0 {
		fmt.Fprintf(r.Stderr, "error: no known models for engine %q\n", engine)
		return 1
	}
	for _, m := range models {
		fmt.Fprintf(r.Stdout, "%-8s %-26s %s\n", m.Engine, m.ID, m.Description)
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := r.driver().Devices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if !handled {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}
	if err != nil {
		return r.ownerError(err)
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	if resp.Message != "" && resp.Message != "status" {
		fmt.Fprintf(r.Stdout, "%s (%s)\n", resp.State, resp.Message)
		return 0
	}
	fmt.Fprintln(r.Stdout, resp.State)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: hotscribe is not running; start it with `%s run`\n", binaryName)
		return 1
	}
	if err != nil {
		return r.ownerError(err)
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// ownerError prints a failure reported by or on the way to the owner. A busy
// owner exits with exitBusy so scripts can retry.
func (r Runner) ownerError(err error) int {
	var classified *failure.Error
	if !errors.As(err, &classified) {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(r.Stderr, "error: %v (%s)\n", err, classified.Kind)
	if classified.Kind == failure.KindBusy {
		return exitBusy
	}
	return 1
}
