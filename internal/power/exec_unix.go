//go:build unix

package power

import (
	"fmt"
	"os"
	"syscall"

	"github.com/sweeney/alarmguard/internal/logic"
)

// ExecRestarter re-executes the current binary in place.
type ExecRestarter struct {
	// Before runs just before exec; used to release hardware and flush logs.
	Before func()
}

func (e ExecRestarter) Restart(cause logic.WakeCause) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if e.Before != nil {
		e.Before()
	}
	env := environWith(os.Environ(), EnvWakeCause, string(cause))
	return syscall.Exec(exe, os.Args, env)
}
