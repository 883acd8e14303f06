//go:build !windows

package export

import "syscall"

// SysExecer replaces the current process via execve(2)
type SysExecer struct{}

// Exec only returns if the exec itself fails
func (SysExecer) Exec(path string, argv []string, env []string) error {
	return syscall.Exec(path, argv, env)
}
