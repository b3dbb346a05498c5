package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/hotscribe/internal/asr"
	"github.com/rbright/hotscribe/internal/audio"
	"github.com/rbright/hotscribe/internal/config"
	"github.com/rbright/hotscribe/internal/failure"
	"github.com/rbright/hotscribe/internal/hotkey"
	"github.com/rbright/hotscribe/internal/ipc"
	"github.com/rbright/hotscribe/internal/notify"
	"github.com/rbright/hotscribe/internal/output"
	"github.com/rbright/hotscribe/internal/pipeline"
	"github.com/rbright/hotscribe/internal/session"
	"github.com/rbright/hotscribe/internal/transcribe"
)

// shutdownTimeout bounds how long run waits for an in-flight transcription
// after an interrupt.
const shutdownTimeout = 5 * time.Second

// commandRun owns the runtime socket and serves hotkeys and IPC commands until
// ctx is cancelled.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	backend, err := asr.New(asr.Options{
		Engine:  cfg.Transcription.Engine,
		Model:   cfg.Transcription.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.Transcription.BaseURL,
		Command: cfg.Transcription.Command.Argv,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	engine, err := pipeline.NewEngine(cfg, backend, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	jobs := transcribe.NewDispatcher(engine, transcribe.Options{
		Logger:  logger,
		Timeout: time.Duration(cfg.Transcription.TimeoutMS) * time.Millisecond,
	})
	defer jobs.Close()

	driver := r.driver()
	stream := audio.StreamConfig{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels}
	if selection, err := audio.SelectWith(ctx, driver, cfg.Audio.Input, cfg.Audio.Fallback); err != nil {
		logger.Warn("audio device selection failed; using system default", "error", err.Error())
	} else {
		stream.DeviceID = selection.Device.ID
		if selection.Warning != "" {
			logger.Warn(selection.Warning)
		}
		logger.Info("audio device selected", "device", audio.Describe(selection.Device))
	}

	capture := audio.NewSession(driver, audio.SessionOptions{
		Logger:             logger,
		LowSignalThreshold: cfg.Audio.LowSignalThreshold,
	})
	controller := session.NewController(capture, jobs, session.Options{
		Logger:   logger,
		Stream:   stream,
		Language: cfg.Transcription.Language,
	})

	listeners := session.Listeners{
		eventLog{logger: logger},
		output.NewClipboard(cfg.Clipboard, logger, func(err error) {
			controller.Report(failure.Wrap(failure.KindConfig, "clipboard command failed", err))
		}),
		notify.NewDesktop(cfg.Notify, logger),
	}
	deliverDone := make(chan error, 1)
	go func() {
		deliverDone <- controller.Deliver(context.Background(), listeners)
	}()

	hotkeys, err := r.startHotkeys(cfg.Hotkey, controller, logger)
	if err != nil {
		controller.Report(err)
	}

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	fmt.Fprintf(r.Stdout, "listening on %s (toggle: %s)\n", socketPath, cfg.Hotkey.Toggle)
	logger.Info("hotscribe running", "socket", socketPath, "engine", backend.Name())

	exitCode := 0
	var serverErr error
	select {
	case <-ctx.Done():
	case serverErr = <-serverErrCh:
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		exitCode = 1
	}

	if hotkeys != nil {
		_ = hotkeys.Stop()
	}
	serverCancel()
	if serverErr == nil {
		<-serverErrCh
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = controller.Shutdown(shutdownCtx)
	if err := <-deliverDone; err != nil {
		logger.Error("notification delivery ended", "error", err.Error())
	}

	logger.Info("hotscribe stopped")
	return exitCode
}

// startHotkeys registers the configured chords and starts the key tap. A key
// tap that cannot start leaves IPC control working.
func (r Runner) startHotkeys(cfg config.HotkeyConfig, controller *session.Controller, logger *slog.Logger) (*hotkey.Dispatcher, error) {
	dispatcher := hotkey.NewDispatcher(r.keys(), hotkey.Options{
		Logger:         logger,
		DebounceWindow: time.Duration(cfg.DebounceMS) * time.Millisecond,
		OnError:        controller.Report,
	})

	if _, err := dispatcher.Register(cfg.Toggle, func() {
		if err := controller.Toggle(); err != nil {
			logger.Debug("hotkey toggle rejected", "error", err.Error())
		}
	}); err != nil {
		return nil, err
	}
	if cfg.Cancel != "" {
		if _, err := dispatcher.Register(cfg.Cancel, func() {
			err := controller.Cancel()
			if errors.Is(err, session.ErrNotRecording) || errors.Is(err, session.ErrBusy) {
				logger.Debug("hotkey cancel ignored", "error", err.Error())
				return
			}
			if err != nil {
				logger.Warn("hotkey cancel failed", "error", err.Error())
			}
		}); err != nil {
			return nil, err
		}
	}

	if err := dispatcher.Start(); err != nil {
		return nil, err
	}
	return dispatcher, nil
}
