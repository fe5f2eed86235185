// Package main provides a hook that plays a system sound when modulation
// is toggled. macOS uses afplay with the named system sounds; Linux uses
// paplay with freedesktop sound theme files.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Request represents the input from the hook executor.
type Request struct {
	Event     string          `json:"event"`
	Timestamp int64           `json:"timestamp_ms"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config names the sound for each state.
type Config struct {
	On  string `json:"on"`
	Off string `json:"off"`
}

var defaultConfig = Config{On: "Glass", Off: "Basso"}

// linuxSounds maps macOS sound names onto freedesktop theme sounds.
var linuxSounds = map[string]string{
	"Glass": "complete",
	"Basso": "dialog-warning",
	"Ping":  "message",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	cfg := defaultConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("invalid config: %w", err))
			return
		}
	}

	var name string
	switch req.Event {
	case "modulation.on":
		name = cfg.On
	case "modulation.off":
		name = cfg.Off
	default:
		writeResponse(fmt.Errorf("unsupported event: %s", req.Event))
		return
	}

	writeResponse(play(name))
}

func play(name string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("afplay", filepath.Join("/System/Library/Sounds", name+".aiff"))
	case "linux":
		theme, ok := linuxSounds[name]
		if !ok {
			theme = name
		}
		cmd = exec.Command("paplay", filepath.Join("/usr/share/sounds/freedesktop/stereo", theme+".oga"))
	default:
		return fmt.Errorf("no sound player for %s", runtime.GOOS)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeResponse writes a success response when err is nil and an error response otherwise.
func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
