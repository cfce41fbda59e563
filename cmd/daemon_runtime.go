package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// daemonRuntime is written next to the store while the daemon runs, so
// status and stop can find the process and its address.
type daemonRuntime struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DataDir   string    `json:"data_dir,omitempty"`
	InboxDir  string    `json:"inbox_dir,omitempty"`
}

func (rt daemonRuntime) write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	data, err := json.MarshalIndent(rt, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readDaemonRuntime(path string) (daemonRuntime, error) {
	var rt daemonRuntime
	data, err := os.ReadFile(path) //nolint:gosec // runtime path is configured by the local user
	if err != nil {
		return rt, err
	}
	if err := json.Unmarshal(data, &rt); err != nil {
		return rt, fmt.Errorf("parsing %s: %w", path, err)
	}
	if rt.PID <= 0 {
		return rt, fmt.Errorf("invalid pid in %s", path)
	}
	return rt, nil
}

// alive reports whether the recorded process still exists. EPERM means it
// exists but belongs to another user.
func (rt daemonRuntime) alive() bool {
	proc, err := os.FindProcess(rt.PID)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// stop sends SIGTERM and waits up to timeout for the process to exit.
func (rt daemonRuntime) stop(timeout time.Duration) error {
	proc, err := os.FindProcess(rt.PID)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !rt.alive() {
			return nil
		}
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", rt.PID)
}

// ensureNoDaemon fails when a live daemon owns path and clears a stale file.
func ensureNoDaemon(path string) error {
	rt, err := readDaemonRuntime(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err == nil && rt.alive():
		return fmt.Errorf("daemon already running (pid %d, http://%s)", rt.PID, rt.Addr)
	}
	_ = os.Remove(path)
	return nil
}

// childArgs turns the current invocation into the detached child's.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return append(out, "--child")
}

// spawnDetached re-runs the binary in the background with output appended
// to logPath, returning the child's pid.
func spawnDetached(args []string, logPath string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return 0, fmt.Errorf("create daemon log directory: %w", err)
	}
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // log path is configured by the local user
	if err != nil {
		return 0, fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	c := exec.Command(exe, childArgs(args)...) //nolint:gosec // re-executes the current binary
	c.Stdout = logf
	c.Stderr = logf
	c.Env = os.Environ()
	if err := c.Start(); err != nil {
		return 0, fmt.Errorf("start detached daemon: %w", err)
	}
	return c.Process.Pid, nil
}
