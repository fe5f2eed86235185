// Package main provides a hook that posts a desktop notification for
// modulation and session events via osascript (macOS) or notify-send (Linux).
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the hook executor.
type Request struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Value     *int   `json:"value"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

const title = "mudra"

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	msg, err := message(req)
	if err != nil {
		writeResponse(err)
		return
	}
	writeResponse(notify(msg))
}

func message(req Request) (string, error) {
	switch req.Event {
	case "modulation.on":
		return "Modulation on", nil
	case "modulation.off":
		if req.Value != nil {
			return fmt.Sprintf("Modulation off (last value %d)", *req.Value), nil
		}
		return "Modulation off", nil
	case "session.start":
		return "Tracking started", nil
	case "session.end":
		return "Tracking stopped", nil
	}
	return "", fmt.Errorf("unsupported event: %s", req.Event)
}

func notify(msg string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, msg, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", "--app-name="+title, title, msg)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
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
