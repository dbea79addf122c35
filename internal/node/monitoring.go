package node

import (
	"context"
	"time"

	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/motion"
)

// monitor watches for motion until the first positive verdict or the deadline.
func (n *Node) monitor(ctx context.Context, c *cycle) {
	st := c.st
	if st.DetectionEnabled && st.NightModeEnabled {
		n.gateNight(c)
	}
	if !st.DetectionEnabled {
		st.Mode = logic.ModeTelegram
		return
	}

	n.Detector.Reset()
	n.Detector.Debug = st.DebugEnabled

	ticker := time.NewTicker(n.PollInterval)
	defer ticker.Stop()

	frames := 0
loop:
	for {
		if n.checkFrame(ctx, c) {
			break
		}
		frames++
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}
	}

	c.logger.Info("monitoring done", "frames", frames, "events", st.MotionEventCount)
	st.Mode = logic.NextModeAfterMonitoring(*st, n.Debouncer)
}

// checkFrame captures and evaluates one frame. It reports whether motion was
// detected, in which case the frame has been recorded.
func (n *Node) checkFrame(ctx context.Context, c *cycle) bool {
	st := c.st
	data, err := n.Camera.Capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("capture failed", "error", err)
		}
		return false
	}

	res, img, err := n.Detector.DetectJPEG(data, st.MinChangeThresholdPercent)
	if err != nil {
		c.logger.Warn("frame decode failed", "error", err)
		return false
	}
	if st.DebugEnabled {
		c.logger.Info("frame", "percent", res.Percent, "changed", res.ChangedCount, "sampled", res.Sampled)
	}
	if !res.Changed {
		return false
	}

	n.Debouncer.Record(st)
	c.logger.Info("motion detected", "percent", res.Percent, "threshold", st.MinChangeThresholdPercent, "events", st.MotionEventCount)

	if st.DebugEnabled && len(res.Points) > 0 {
		if annotated, err := motion.EncodeJPEG(motion.Annotate(img, res.Points)); err != nil {
			c.logger.Warn("annotate failed", "error", err)
		} else {
			data = annotated
		}
	}
	slot, err := n.Photos.Store(st, data)
	if err != nil {
		c.logger.Error("failed to store motion photo", "error", err)
		return true
	}
	c.logger.Info("motion photo stored", "slot", logic.SlotName(slot))
	return true
}
