package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// commandCapture records from the default input device by running an
// external recorder process until stopped.
type commandCapture struct {
	cmd  *exec.Cmd
	path string
}

// CommandCapture starts `arecord` writing a WAV file into the temp dir.
// Stop interrupts the process and returns the recorded bytes.
func CommandCapture(ctx context.Context) (Capture, error) {
	f, err := os.CreateTemp("", "chaty-rec-*.wav")
	if err != nil {
		return nil, fmt.Errorf("capture temp file: %w", err)
	}
	path := f.Name()
	_ = f.Close()

	cmd := exec.CommandContext(ctx, "arecord", "-q", "-f", "cd", "-t", "wav", path)
	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("start recorder: %w", err)
	}
	return &commandCapture{cmd: cmd, path: path}, nil
}

func (c *commandCapture) Stop() ([]byte, string, error) {
	defer func() { _ = os.Remove(c.path) }()

	// Interrupt lets arecord finalize the WAV header.
	if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = c.cmd.Process.Kill()
	}
	waitDone := make(chan error, 1)
	go func() { waitDone <- c.cmd.Wait() }()
	select {
	case <-waitDone:
	case <-time.After(3 * time.Second):
		_ = c.cmd.Process.Kill()
		<-waitDone
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, "", fmt.Errorf("read capture: %w", err)
	}
	return data, "audio/wav", nil
}
