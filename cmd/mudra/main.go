package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Flags shared by every subcommand. They override the config file only
// when given on the command line.
var (
	flagConfig      string
	flagDemo        bool
	flagCamera      int
	flagMirror      bool
	flagControlHand string
	flagMultiHand   bool
	flagOutput      string
	flagChannel     int
	flagSerialPort  string
	flagMQTTBroker  string
	flagDataDir     string
	flagHooksDir    string
	flagLogLevel    string
	flagLogFile     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mudra",
		Short: "mudra - hand-gesture MIDI modulation controller",
		Long: `mudra watches your hands through a camera and turns them into a MIDI
control-change stream.

Point your index finger up and hold it to toggle modulation on or off. While
modulation is on, an open palm moving toward or away from the camera sweeps the
control value between 0 and 127.

Use --demo to run without a camera or pose estimator.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Config file (default ~/.mudra/config.yaml when present)")
	pf.BoolVar(&flagDemo, "demo", false, "Use a scripted hand sequence instead of the camera")
	pf.IntVar(&flagCamera, "camera", 0, "Camera device index")
	pf.BoolVar(&flagMirror, "mirror", true, "Flip frames horizontally (selfie view)")
	pf.StringVar(&flagControlHand, "control-hand", "Right", "Hand that toggles and modulates: Left or Right")
	pf.BoolVar(&flagMultiHand, "multi-hand", false, "Let both hands modulate, the other hand on the secondary controller")
	pf.StringVar(&flagOutput, "output", "log", "Comma-separated outputs: none, log, virtual, serial, mqtt")
	pf.IntVar(&flagChannel, "channel", 0, "Zero-based MIDI channel (0-15)")
	pf.StringVar(&flagSerialPort, "serial-port", "", "Serial MIDI port, e.g. /dev/ttyUSB0")
	pf.StringVar(&flagMQTTBroker, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	pf.StringVar(&flagDataDir, "data-dir", "", "Directory for the database (default ~/.mudra)")
	pf.StringVar(&flagHooksDir, "hooks-dir", "", "Directory scanned for hooks (default ~/.mudra/hooks)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: error, warn, info, debug")
	pf.StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newRunCmd(),
		newRecordCmd(),
		newReplayCmd(),
		newRecordingsCmd(),
	)
	return rootCmd
}
