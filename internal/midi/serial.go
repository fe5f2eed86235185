package midi

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the DIN MIDI wire rate.
const DefaultBaudRate = 31250

const reopenInterval = 2 * time.Second

// SerialConfig describes a serial MIDI port.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// Mode returns the 8N1 serial mode for the configured baud rate.
func (c SerialConfig) Mode() *serial.Mode {
	baud := c.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

type portOpener func(path string, mode *serial.Mode) (io.WriteCloser, error)

func openSerialPort(path string, mode *serial.Mode) (io.WriteCloser, error) {
	return serial.Open(path, mode)
}

// SerialOutput writes raw MIDI bytes to a serial port. When the port is
// missing or a write fails, sends report ErrNoDevice and the port is
// reopened on a later send, at most every two seconds.
type SerialOutput struct {
	cfg  SerialConfig
	open portOpener
	now  func() time.Time

	mu          sync.Mutex
	port        io.WriteCloser
	lastAttempt time.Time
}

// NewSerialOutput creates a SerialOutput and tries to open the port once.
// A missing port is not an error.
func NewSerialOutput(cfg SerialConfig) *SerialOutput {
	return newSerialOutput(cfg, openSerialPort, time.Now)
}

func newSerialOutput(cfg SerialConfig, open portOpener, now func() time.Time) *SerialOutput {
	o := &SerialOutput{cfg: cfg, open: open, now: now}
	o.mu.Lock()
	o.connect()
	o.mu.Unlock()
	return o
}

func (o *SerialOutput) connect() bool {
	o.lastAttempt = o.now()
	if o.cfg.Port == "" {
		return false
	}
	port, err := o.open(o.cfg.Port, o.cfg.Mode())
	if err != nil {
		return false
	}
	o.port = port
	return true
}

// SendControlChange writes one control-change message.
func (o *SerialOutput) SendControlChange(channel, controller, value uint8) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.port == nil {
		if o.now().Sub(o.lastAttempt) < reopenInterval || !o.connect() {
			return ErrNoDevice
		}
	}

	if _, err := o.port.Write(ControlChange(channel, controller, value)); err != nil {
		o.port.Close()
		o.port = nil
		return fmt.Errorf("%w: %s: %v", ErrNoDevice, o.cfg.Port, err)
	}
	return nil
}

// Connected reports whether the port is currently open.
func (o *SerialOutput) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.port != nil
}

// Close closes the port if open.
func (o *SerialOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.port == nil {
		return nil
	}
	err := o.port.Close()
	o.port = nil
	return err
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
