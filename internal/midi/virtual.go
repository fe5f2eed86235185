package midi

import (
	"errors"
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// DefaultVirtualPort is the name of the port mudra creates for DAWs to pick up.
const DefaultVirtualPort = "mudra"

// VirtualConfig selects an OS MIDI port. With Port set, the first existing
// output whose name contains it is used; otherwise a virtual port named Name
// is created. Virtual ports need CoreMIDI or ALSA.
type VirtualConfig struct {
	Name string `yaml:"name"`
	Port string `yaml:"port,omitempty"`
}

// VirtualOutput sends control changes to an OS MIDI port through rtmidi.
type VirtualOutput struct {
	name  string
	send  func(gomidi.Message) error
	close func() error
}

// OpenVirtual opens the port described by cfg.
func OpenVirtual(cfg VirtualConfig) (*VirtualOutput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}

	var out drivers.Out
	if cfg.Port != "" {
		outs, err := drv.Outs()
		if err != nil {
			drv.Close()
			return nil, fmt.Errorf("list midi ports: %w", err)
		}
		names := make([]string, len(outs))
		for i, o := range outs {
			names[i] = o.String()
		}
		i, err := matchPort(names, cfg.Port)
		if err != nil {
			drv.Close()
			return nil, err
		}
		out = outs[i]
	} else {
		name := cfg.Name
		if name == "" {
			name = DefaultVirtualPort
		}
		out, err = drv.OpenVirtualOut(name)
		if err != nil {
			drv.Close()
			return nil, fmt.Errorf("open virtual port %q: %w", name, err)
		}
	}

	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			drv.Close()
			return nil, fmt.Errorf("open midi port %s: %w", out, err)
		}
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("midi port %s: %w", out, err)
	}

	return newVirtualOutput(out.String(), send, func() error {
		return errors.Join(out.Close(), drv.Close())
	}), nil
}

func newVirtualOutput(name string, send func(gomidi.Message) error, close func() error) *VirtualOutput {
	return &VirtualOutput{name: name, send: send, close: close}
}

// Name returns the port name.
func (o *VirtualOutput) Name() string { return o.name }

func (o *VirtualOutput) SendControlChange(channel, controller, value uint8) error {
	if err := o.send(gomidi.ControlChange(channel&0x0F, controller&0x7F, value&0x7F)); err != nil {
		return fmt.Errorf("midi port %s: %w", o.name, err)
	}
	return nil
}

func (o *VirtualOutput) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// matchPort returns the index of the first name containing want, ignoring case.
func matchPort(names []string, want string) (int, error) {
	w := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), w) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no midi output matching %q (have %s)", want, strings.Join(names, ", "))
}
