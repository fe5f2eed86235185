// Package midi sends control-change messages to output devices.
package midi

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// MaxData is the largest 7-bit MIDI data byte.
	MaxData = 127
	// MaxChannel is the largest zero-based MIDI channel.
	MaxChannel = 15

	// DefaultController is CC 1, the modulation wheel.
	DefaultController = 1

	controlChange = 0xB0
)

// ErrNoDevice is returned when no output device is attached.
var ErrNoDevice = errors.New("no output device attached")

// Output is a device that accepts control-change messages.
type Output interface {
	SendControlChange(channel, controller, value uint8) error
	Close() error
}

// ControlChange encodes a control-change message. Out-of-range arguments
// are clamped: channel to 0..15, controller and value to 0..127.
func ControlChange(channel, controller, value uint8) []byte {
	if channel > MaxChannel {
		channel = MaxChannel
	}
	if controller > MaxData {
		controller = MaxData
	}
	if value > MaxData {
		value = MaxData
	}
	return []byte{controlChange | channel, controller, value}
}

// Clamp limits v to 0..127.
func Clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > MaxData {
		return MaxData
	}
	return uint8(v)
}

// Disconnected is an Output with no device behind it.
type Disconnected struct{}

// SendControlChange always fails with ErrNoDevice.
func (Disconnected) SendControlChange(channel, controller, value uint8) error {
	return ErrNoDevice
}

// Close is a no-op.
func (Disconnected) Close() error { return nil }

// LogOutput writes every message to the logger at debug level.
type LogOutput struct {
	Logger *slog.Logger
}

// SendControlChange logs the message.
func (o LogOutput) SendControlChange(channel, controller, value uint8) error {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("control change", "channel", channel, "controller", controller, "value", value)
	return nil
}

// Close is a no-op.
func (LogOutput) Close() error { return nil }

// Multi fans a message out to several outputs. It fails with ErrNoDevice
// only when every output reports no device.
type Multi []Output

// SendControlChange sends to every output and joins the errors.
func (m Multi) SendControlChange(channel, controller, value uint8) error {
	if len(m) == 0 {
		return ErrNoDevice
	}
	var errs []error
	missing := 0
	for _, o := range m {
		if err := o.SendControlChange(channel, controller, value); err != nil {
			if errors.Is(err, ErrNoDevice) {
				missing++
				continue
			}
			errs = append(errs, err)
		}
	}
	if missing == len(m) {
		return ErrNoDevice
	}
	return errors.Join(errs...)
}

// Close closes every output.
func (m Multi) Close() error {
	var errs []error
	for _, o := range m {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Kind names an output backend in configuration.
type Kind string

const (
	KindNone    Kind = "none"
	KindLog     Kind = "log"
	KindSerial  Kind = "serial"
	KindMQTT    Kind = "mqtt"
	KindVirtual Kind = "virtual"
)

// ParseKinds splits a comma-separated list such as "serial,mqtt".
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		k := Kind(strings.ToLower(strings.TrimSpace(part)))
		switch k {
		case "":
			continue
		case KindNone, KindLog, KindSerial, KindMQTT, KindVirtual:
			kinds = append(kinds, k)
		default:
			return nil, fmt.Errorf("unknown output %q", part)
		}
	}
	return kinds, nil
}
