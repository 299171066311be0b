package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

var (
	ErrTransport    = errors.New("transport failed")
	ErrEmptyCommand = errors.New("empty command")
)

// Executor runs commands and copies files on a target.
type Executor interface {
	Run(ctx context.Context, argv []string) (int, error)
	Copy(ctx context.Context, source, destination string) error
}

// Local runs commands on the machine the tool runs on. It serves targets
// that are the local hypervisor.
type Local struct {
}

// Run returns the exit status of the command. An error means the command
// could not be run at all.
func (e *Local) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.WithFields(log.Fields{
			"command": strings.Join(argv, " "),
			"output":  string(output),
		}).Debug("command exited with non-zero status")

		return exitErr.ExitCode(), nil
	}

	if err != nil {
		return -1, fmt.Errorf("failed to run cmd: %w: %w", ErrTransport, err)
	}

	return 0, nil
}

func (e *Local) Copy(ctx context.Context, source, destination string) error {
	status, err := e.Run(ctx, []string{"cp", "-r", source, destination})
	if err != nil {
		return err
	}

	if status != 0 {
		return fmt.Errorf("failed to copy %s: %w: cp exited with status %d", source, ErrTransport, status)
	}

	return nil
}

func NewLocal() *Local {
	return &Local{}
}
