package sequencer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// ExecServer launches the application server as the terminal step. On success
// the sequencer process is replaced and Run never returns; a returned error
// always means the launch itself failed.
type ExecServer struct {
	Command string
	Port    int
}

func (ExecServer) Name() string { return "server" }

func (e ExecServer) Run(ctx context.Context) error {
	argv := strings.Fields(e.Command)
	if len(argv) == 0 {
		return fmt.Errorf("empty server command")
	}
	argv = append(argv, "--bind", fmt.Sprintf("0.0.0.0:%d", e.Port))

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("locate server binary: %w", err)
	}
	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec server: %w", err)
	}
	return nil
}
