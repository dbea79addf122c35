//go:build !unix

package power

import "github.com/sweeney/alarmguard/internal/logic"

// ExecRestarter is not available on this platform.
type ExecRestarter struct {
	Before func()
}

func (e ExecRestarter) Restart(logic.WakeCause) error {
	return ErrUnsupported
}
