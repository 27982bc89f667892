//go:build !windows

package hooks

import (
	"os/exec"
	"syscall"
)

// detachedLauncher starts the process in its own session with no stdio, so
// it survives the hook exiting.
type detachedLauncher struct{}

func (detachedLauncher) Start(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
