//go:build windows

package export

import "errors"

// SysExecer is unavailable on Windows; the platform gate never reaches it
type SysExecer struct{}

func (SysExecer) Exec(path string, argv []string, env []string) error {
	return errors.New("process replacement is not supported on windows")
}
