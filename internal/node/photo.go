package node

import (
	"context"
	"time"

	"github.com/sweeney/alarmguard/internal/camera"
	"github.com/sweeney/alarmguard/internal/logic"
)

const resetTimeout = 5 * time.Second

// photo serves one capture request. It reports true when the retry budget is
// exhausted and the cycle must end with a full restart.
func (n *Node) photo(ctx context.Context, c *cycle) bool {
	st := c.st
	if !st.PhotoRequested() {
		st.Mode = logic.ModeTelegram
		return false
	}

	flash := st.FlashRequested
	data, err := camera.Capture(ctx, n.Camera, n.Lamp, flash)
	if err != nil {
		if logic.FailCapture(st, n.MaxCaptureAttempts) {
			c.logger.Error("capture failed, giving up", "error", err, "attempts", n.MaxCaptureAttempts)
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetTimeout)
			defer cancel()
			if err := n.Camera.Reset(rctx); err != nil {
				c.logger.Warn("camera reset failed", "error", err)
			}
			return true
		}
		c.logger.Warn("capture failed", "error", err, "attempt", st.CaptureAttempts)
		return false
	}

	slot, err := n.Photos.Store(st, data)
	if err != nil {
		c.logger.Error("failed to store photo", "error", err)
		logic.DropCapture(st)
		return false
	}
	logic.CompleteCapture(st, slot)
	c.logger.Info("photo stored", "slot", logic.SlotName(slot), "flash", flash, "bytes", len(data))
	return false
}
