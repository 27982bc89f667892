//go:build windows

package hooks

import "os/exec"

type detachedLauncher struct{}

func (detachedLauncher) Start(dir, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
