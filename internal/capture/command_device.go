package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/ewilliams-labs/moodmelody/internal/audio"
	"github.com/ewilliams-labs/moodmelody/internal/core/ports"
)

const (
	defaultCaptureCommand = "arecord"
	chunkSize             = 4096
)

// CommandDevice records from the microphone through an external capture
// program writing raw PCM16LE to stdout (arecord by default).
type CommandDevice struct {
	Command string
	Args    []string
}

var _ ports.AudioDevice = (*CommandDevice)(nil)

// NewCommandDevice returns a device running command with args. An empty
// command selects arecord configured for format.
func NewCommandDevice(command string, args []string, format audio.Format) *CommandDevice {
	if command == "" {
		command = defaultCaptureCommand
		if len(args) == 0 {
			args = arecordArgs(format)
		}
	}
	return &CommandDevice{Command: command, Args: args}
}

func arecordArgs(format audio.Format) []string {
	rate := format.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}
	channels := format.Channels
	if channels <= 0 {
		channels = 1
	}
	return []string{
		"-q",
		"-t", "raw",
		"-f", "S16_LE",
		"-r", strconv.Itoa(rate),
		"-c", strconv.Itoa(channels),
	}
}

// Open resolves the capture program. The process itself starts in Start.
func (d *CommandDevice) Open(ctx context.Context) (ports.AudioStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := exec.LookPath(d.Command)
	if err != nil {
		return nil, fmt.Errorf("capture command %q not found: %w", d.Command, err)
	}
	return &commandStream{path: path, args: d.Args}, nil
}

type commandStream struct {
	path string
	args []string

	mu            sync.Mutex
	cmd           *exec.Cmd
	stopRequested bool
	released      bool
}

func (s *commandStream) Start(onData func([]byte), onStop func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return errors.New("capture: stream already released")
	}
	if s.cmd != nil {
		return errors.New("capture: stream already started")
	}

	// #nosec G204 -- command comes from local configuration
	cmd := exec.Command(s.path, s.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("capture: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("capture: start %s: %w", s.path, err)
	}
	s.cmd = cmd

	go s.pump(cmd, stdout, onData, onStop)
	return nil
}

func (s *commandStream) pump(cmd *exec.Cmd, stdout io.Reader, onData func([]byte), onStop func(error)) {
	buf := make([]byte, chunkSize)
	var readErr error
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			onData(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
	}
	waitErr := cmd.Wait()

	s.mu.Lock()
	requested := s.stopRequested
	s.mu.Unlock()

	var stopErr error
	switch {
	case requested:
		// Interrupting the recorder is the normal way to end it.
	case readErr != nil:
		stopErr = readErr
	case waitErr != nil:
		stopErr = waitErr
	}
	onStop(stopErr)
}

func (s *commandStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil || s.stopRequested {
		return
	}
	s.stopRequested = true
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		log.Printf("WARN capture: interrupt recorder: %v", err)
		_ = s.cmd.Process.Kill()
	}
}

func (s *commandStream) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	s.stopRequested = true
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("capture: kill recorder: %w", err)
	}
	return nil
}
