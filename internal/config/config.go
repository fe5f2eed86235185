// Package config loads the YAML configuration file and merges command-line
// overrides into it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/midi"
	"github.com/ayusman/mudra/internal/modulation"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/stabilizer"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "~/.mudra/config.yaml"

// Config is the top-level YAML configuration.
//
// Defaults and validation live here so the rest of the program can assume a
// well-formed config. Gesture, stabilizer, modulation and output fields map
// onto pipeline.Settings; the rest configures the process around it.
type Config struct {
	Camera     CameraConfig     `yaml:"camera"`
	Detector   detector.Config  `yaml:"detector"`
	Gesture    GestureConfig    `yaml:"gesture"`
	Stabilizer StabilizerConfig `yaml:"stabilizer"`
	Modulation ModulationConfig `yaml:"modulation"`
	Output     OutputConfig     `yaml:"output"`
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Hooks      HooksConfig      `yaml:"hooks"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type CameraConfig struct {
	Device int `yaml:"device"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
	// Mirror flips frames horizontally before detection (selfie view).
	Mirror bool `yaml:"mirror"`
	// Demo replaces camera and detector with a scripted sequence of poses.
	Demo bool `yaml:"demo"`
}

type GestureConfig struct {
	Strictness         geometry.Strictness   `yaml:"strictness"`
	HandOpenStrictness geometry.Strictness   `yaml:"hand_open_strictness"`
	Thumb              gesture.ThumbStrategy `yaml:"thumb"`
}

type StabilizerConfig struct {
	Strategy   stabilizer.Strategy `yaml:"strategy"`
	Frames     int                 `yaml:"frames"`
	DurationMS int                 `yaml:"duration_ms"`
	CooldownMS int                 `yaml:"cooldown_ms"`
}

type ModulationConfig struct {
	modulation.Config `yaml:",inline"`

	ControlHand detector.Side `yaml:"control_hand"`
	MultiHand   bool          `yaml:"multi_hand"`
}

type OutputConfig struct {
	Kinds               []midi.Kind        `yaml:"kinds"`
	Channel             int                `yaml:"channel"`
	Controller          int                `yaml:"controller"`
	SecondaryController int                `yaml:"secondary_controller"`
	MinIntervalMS       int                `yaml:"min_interval_ms"`
	Serial              midi.SerialConfig  `yaml:"serial"`
	MQTT                midi.MQTTConfig    `yaml:"mqtt"`
	Virtual             midi.VirtualConfig `yaml:"virtual"`
}

type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	WebDir  string `yaml:"web_dir,omitempty"`
}

type StoreConfig struct {
	DataDir string `yaml:"data_dir"`
}

type HooksConfig struct {
	Dir       string `yaml:"dir"`
	TimeoutMS int    `yaml:"timeout_ms"`
	QueueSize int    `yaml:"queue_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives log output instead of stderr; the terminal UI needs this.
	File string `yaml:"file,omitempty"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	s := pipeline.DefaultSettings()
	return Config{
		Camera: CameraConfig{
			Device: 0,
			Width:  960,
			Height: 540,
			FPS:    30,
			Mirror: true,
		},
		Detector: detector.DefaultConfig(),
		Gesture: GestureConfig{
			Strictness:         s.GestureStrictness,
			HandOpenStrictness: s.HandOpenStrictness,
			Thumb:              s.Thumb,
		},
		Stabilizer: StabilizerConfig{
			Strategy:   s.Stabilizer,
			Frames:     s.ConfirmFrames,
			DurationMS: int(s.ConfirmDuration),
			CooldownMS: int(s.Cooldown),
		},
		Modulation: ModulationConfig{
			Config:      s.Modulation,
			ControlHand: s.ControlHand,
		},
		Output: OutputConfig{
			Kinds:               []midi.Kind{midi.KindLog},
			Channel:             s.Channel,
			Controller:          s.Controller,
			SecondaryController: s.SecondaryController,
			MinIntervalMS:       int(midi.DefaultMinInterval / time.Millisecond),
			Serial:              midi.SerialConfig{BaudRate: midi.DefaultBaudRate},
			MQTT:                midi.MQTTConfig{ClientID: "mudra", Topic: "mudra/cc"},
			Virtual:             midi.VirtualConfig{Name: midi.DefaultVirtualPort},
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8765",
		},
		Store: StoreConfig{
			DataDir: "~/.mudra",
		},
		Hooks: HooksConfig{
			Dir:       "~/.mudra/hooks",
			TimeoutMS: 5000,
			QueueSize: 16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses a YAML config file on top of DefaultConfig.
// Unknown fields and trailing documents are rejected.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of DefaultConfig.
func Parse(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		// A file holding only comments decodes to io.EOF: just the defaults.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// LoadOrDefault loads path when it is set. With an empty path it tries
// DefaultPath and falls back to DefaultConfig when that file does not exist.
func LoadOrDefault(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(ExpandPath(DefaultPath)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("stat default config: %w", err)
	}
	return Load(DefaultPath)
}

// FlagOverrides holds values given on the command line. A nil pointer means
// the flag was not set; a non-nil pointer is applied even if it holds a zero value.
type FlagOverrides struct {
	Demo         *bool
	CameraDevice *int
	Mirror       *bool

	ControlHand *string
	MultiHand   *bool

	Outputs    *string
	Channel    *int
	SerialPort *string
	MQTTBroker *string

	ServerEnabled *bool
	Addr          *string

	DataDir  *string
	HooksDir *string

	LogLevel *string
	LogFile  *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	if o.Demo != nil {
		cfg.Camera.Demo = *o.Demo
	}
	if o.CameraDevice != nil {
		cfg.Camera.Device = *o.CameraDevice
	}
	if o.Mirror != nil {
		cfg.Camera.Mirror = *o.Mirror
	}

	if o.ControlHand != nil {
		cfg.Modulation.ControlHand = detector.ParseSide(*o.ControlHand)
	}
	if o.MultiHand != nil {
		cfg.Modulation.MultiHand = *o.MultiHand
	}

	if o.Outputs != nil {
		kinds, err := midi.ParseKinds(*o.Outputs)
		if err != nil {
			return fmt.Errorf("--output: %w", err)
		}
		cfg.Output.Kinds = kinds
	}
	if o.Channel != nil {
		cfg.Output.Channel = *o.Channel
	}
	if o.SerialPort != nil {
		cfg.Output.Serial.Port = *o.SerialPort
	}
	if o.MQTTBroker != nil {
		cfg.Output.MQTT.Broker = *o.MQTTBroker
	}

	if o.ServerEnabled != nil {
		cfg.Server.Enabled = *o.ServerEnabled
	}
	if o.Addr != nil {
		cfg.Server.Addr = *o.Addr
	}

	if o.DataDir != nil {
		cfg.Store.DataDir = *o.DataDir
	}
	if o.HooksDir != nil {
		cfg.Hooks.Dir = *o.HooksDir
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.Logging.File = *o.LogFile
	}
	return nil
}

// Validate checks the invariants that cannot be repaired by clamping.
// Numeric gesture and modulation knobs are clamped later by Settings.
// It is intended to be called after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return errors.New("camera.width and camera.height must be > 0")
	}
	if c.Camera.FPS <= 0 || c.Camera.FPS > 120 {
		return errors.New("camera.fps must be between 1 and 120")
	}

	if c.Detector.MaxHands < 1 {
		return errors.New("detector.max_hands must be >= 1")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return errors.New("detector.min_confidence must be between 0 and 1")
	}
	if c.Detector.MinTrackingConf < 0 || c.Detector.MinTrackingConf > 1 {
		return errors.New("detector.min_tracking_confidence must be between 0 and 1")
	}

	if c.Modulation.ControlHand != detector.SideLeft && c.Modulation.ControlHand != detector.SideRight {
		return errors.New("modulation.control_hand must be left or right")
	}
	if c.Modulation.MinDistance >= c.Modulation.MaxDistance {
		return errors.New("modulation.min_distance must be < modulation.max_distance")
	}

	if c.Stabilizer.Frames < 1 {
		return errors.New("stabilizer.frames must be >= 1")
	}
	if c.Stabilizer.DurationMS < 0 || c.Stabilizer.CooldownMS < 0 {
		return errors.New("stabilizer.duration_ms and stabilizer.cooldown_ms must be >= 0")
	}

	if c.Output.Channel < 0 || c.Output.Channel > midi.MaxChannel {
		return fmt.Errorf("output.channel must be between 0 and %d", midi.MaxChannel)
	}
	if c.Output.MinIntervalMS < 0 {
		return errors.New("output.min_interval_ms must be >= 0")
	}
	for _, k := range c.Output.Kinds {
		switch k {
		case midi.KindNone, midi.KindLog, midi.KindVirtual:
		case midi.KindSerial:
			if c.Output.Serial.Port == "" {
				return errors.New("output.kinds includes serial but output.serial.port is empty")
			}
		case midi.KindMQTT:
			if c.Output.MQTT.Broker == "" {
				return errors.New("output.kinds includes mqtt but output.mqtt.broker is empty")
			}
		default:
			return fmt.Errorf("output.kinds: unknown output %q", k)
		}
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return errors.New("server.addr must not be empty when the server is enabled")
	}
	if c.Store.DataDir == "" {
		return errors.New("store.data_dir must not be empty")
	}
	if c.Hooks.TimeoutMS <= 0 {
		return errors.New("hooks.timeout_ms must be > 0")
	}
	if c.Hooks.QueueSize < 1 {
		return errors.New("hooks.queue_size must be >= 1")
	}

	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	return nil
}

// Settings converts the file config into pipeline settings, clamping every
// knob into range. The notes describe each adjustment.
func (c *Config) Settings() (pipeline.Settings, []string) {
	s := pipeline.Settings{
		GestureStrictness:   c.Gesture.Strictness,
		HandOpenStrictness:  c.Gesture.HandOpenStrictness,
		Thumb:               c.Gesture.Thumb,
		Modulation:          c.Modulation.Config,
		ControlHand:         c.Modulation.ControlHand,
		MultiHand:           c.Modulation.MultiHand,
		Stabilizer:          c.Stabilizer.Strategy,
		ConfirmFrames:       c.Stabilizer.Frames,
		ConfirmDuration:     pipeline.Millis(c.Stabilizer.DurationMS),
		Cooldown:            pipeline.Millis(c.Stabilizer.CooldownMS),
		Channel:             c.Output.Channel,
		Controller:          c.Output.Controller,
		SecondaryController: c.Output.SecondaryController,
		Mirrored:            c.Camera.Mirror,
	}
	return s.Normalize(pipeline.DefaultSettings())
}

// MinInterval is the emitter rate limit.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Output.MinIntervalMS) * time.Millisecond
}

// HookTimeout is the per-hook execution timeout.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.Hooks.TimeoutMS) * time.Millisecond
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(ExpandPath(c.Store.DataDir), "mudra.db")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return p
		}
		if p == "~" {
			return home
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
