package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/hook"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/midi"
	"github.com/ayusman/mudra/internal/store"
)

// overrides collects the persistent flags the user actually set.
func overrides(cmd *cobra.Command) config.FlagOverrides {
	flags := cmd.Flags()
	var o config.FlagOverrides
	if flags.Changed("demo") {
		o.Demo = &flagDemo
	}
	if flags.Changed("camera") {
		o.CameraDevice = &flagCamera
	}
	if flags.Changed("mirror") {
		o.Mirror = &flagMirror
	}
	if flags.Changed("control-hand") {
		o.ControlHand = &flagControlHand
	}
	if flags.Changed("multi-hand") {
		o.MultiHand = &flagMultiHand
	}
	if flags.Changed("output") {
		o.Outputs = &flagOutput
	}
	if flags.Changed("channel") {
		o.Channel = &flagChannel
	}
	if flags.Changed("serial-port") {
		o.SerialPort = &flagSerialPort
	}
	if flags.Changed("mqtt-broker") {
		o.MQTTBroker = &flagMQTTBroker
	}
	if flags.Changed("data-dir") {
		o.DataDir = &flagDataDir
	}
	if flags.Changed("hooks-dir") {
		o.HooksDir = &flagHooksDir
	}
	if flags.Changed("log-level") {
		o.LogLevel = &flagLogLevel
	}
	if flags.Changed("log-file") {
		o.LogFile = &flagLogFile
	}
	return o
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, extra func(*config.Config)) (config.Config, error) {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if err := overrides(cmd).Apply(&cfg); err != nil {
		return config.Config{}, err
	}
	if extra != nil {
		extra(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// env holds everything a tracking command opens, closed in reverse order.
type env struct {
	cfg     config.Config
	store   *store.Store
	emitter *midi.Emitter
	hooks   *hook.Dispatcher
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}
}

// setup configures logging and opens the store. With withOutputs it also
// connects the control outputs and starts the hook dispatcher.
func setup(ctx context.Context, cfg config.Config, withOutputs bool) (*env, error) {
	e := &env{cfg: cfg}

	if err := setupLogging(e, cfg.Logging); err != nil {
		return nil, err
	}

	dataDir := config.ExpandPath(cfg.Store.DataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		e.Close()
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, st.Close)

	if !withOutputs {
		return e, nil
	}

	out, err := buildOutput(cfg.Output)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.emitter = midi.NewEmitter(out, uint8(cfg.Output.Channel), cfg.MinInterval())
	e.closers = append(e.closers, e.emitter.Close)

	mgr := hook.NewManager(config.ExpandPath(cfg.Hooks.Dir))
	if err := mgr.Discover(); err != nil {
		log.Printf("Hook discovery failed: %v", err)
	}
	for _, h := range mgr.List() {
		log.Printf("Hook %s loaded (events %v)", h.Manifest.Name, h.Manifest.Events)
	}
	e.hooks = hook.NewDispatcher(mgr, hook.NewExecutor(cfg.HookTimeout()), cfg.Hooks.QueueSize)
	go e.hooks.Run(ctx)
	e.closers = append(e.closers, func() error {
		e.hooks.Close()
		return nil
	})

	return e, nil
}

func setupLogging(e *env, cfg config.LoggingConfig) error {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		path := config.ExpandPath(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = f
		e.closers = append(e.closers, f.Close)
	}
	logging.Setup(level, w)
	return nil
}

// buildOutput connects every configured output. A serial port that is not
// plugged in yet is retried on send; an unreachable MQTT broker or MIDI port
// is an error.
func buildOutput(cfg config.OutputConfig) (midi.Output, error) {
	var outs midi.Multi
	for _, kind := range cfg.Kinds {
		switch kind {
		case midi.KindNone:
		case midi.KindLog:
			outs = append(outs, midi.LogOutput{})
		case midi.KindSerial:
			outs = append(outs, midi.NewSerialOutput(cfg.Serial))
		case midi.KindVirtual:
			out, err := midi.OpenVirtual(cfg.Virtual)
			if err != nil {
				outs.Close()
				return nil, err
			}
			log.Printf("Sending control changes to MIDI port %s", out.Name())
			outs = append(outs, out)
		case midi.KindMQTT:
			out, err := midi.DialMQTT(cfg.MQTT)
			if err != nil {
				outs.Close()
				return nil, err
			}
			outs = append(outs, out)
		default:
			outs.Close()
			return nil, fmt.Errorf("unknown output %q", kind)
		}
	}
	if len(outs) == 0 {
		return midi.Disconnected{}, nil
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return outs, nil
}

// liveSource builds the camera source, or the scripted one in demo mode.
func liveSource(cfg config.Config) (app.FrameSource, string, error) {
	if cfg.Camera.Demo {
		return app.NewDemoSource(), "demo", nil
	}

	det, err := detector.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		return nil, "", fmt.Errorf("hand detector unavailable (%w); use --demo to run without it", err)
	}
	cam := capture.NewCamera(capture.Options{
		Device: cfg.Camera.Device,
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
		Mirror: cfg.Camera.Mirror,
	})
	return app.NewCameraSource(cam, det), "camera", nil
}

// findWebDir searches for the status page in common locations.
func findWebDir(configured string) string {
	if configured != "" {
		return config.ExpandPath(configured)
	}

	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := config.ExpandPath("~/.mudra/web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		return errors.New("opening a browser is not supported on " + runtime.GOOS)
	}
	return cmd.Start()
}
