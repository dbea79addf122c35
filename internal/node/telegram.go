package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/sweeney/alarmguard/internal/command"
	"github.com/sweeney/alarmguard/internal/logic"
	"github.com/sweeney/alarmguard/internal/mqtt"
	"github.com/sweeney/alarmguard/internal/status"
)

// telegram turns the radio on: deliver alarms and pending photos, then wait
// for one operator command.
func (n *Node) telegram(ctx context.Context, c *cycle) {
	st := c.st
	st.TimeOfDayMarker = n.Now().Unix()
	n.gateNight(c)
	n.updatePhotoUsage()

	if celsius, hot := n.overheated(c); hot {
		n.coolDown(ctx, c, celsius)
		return
	}

	if n.StartHTTP != nil {
		stop := n.StartHTTP()
		defer stop()
	}

	if n.Dial == nil {
		c.logger.Warn("no operator link configured")
		st.Mode = logic.NextModeAfterTelegram(*st, "")
		return
	}
	m, err := n.Dial(ctx)
	if err != nil {
		c.logger.Error("operator link unavailable", "error", err)
		st.Mode = logic.NextModeAfterTelegram(*st, "")
		return
	}
	defer m.Close()
	if n.Tracker != nil {
		n.Tracker.SetMQTTConnected(m.IsConnected())
		n.Tracker.Update(c.mode, *st)
	}

	n.publishBoot(c, m)
	n.deliverAlarm(c, m)
	n.deliverPending(c, m)

	eff := n.awaitCommand(ctx, c, m)
	st.Mode = logic.NextModeAfterTelegram(*st, eff.Transition)
}

// overheated reads the SoC temperature. A failed read never stops the cycle.
func (n *Node) overheated(c *cycle) (float64, bool) {
	if n.Thermal == nil {
		return 0, false
	}
	celsius, err := n.Thermal.Celsius()
	if err != nil {
		c.logger.Warn("temperature unavailable", "error", err)
		return 0, false
	}
	return celsius, logic.Overheated(celsius, n.MaxTemperature)
}

// coolDown tells the operator, when the link comes up, and ends the cycle
// with a timer-only sleep. The node resumes into TELEGRAM to check again.
func (n *Node) coolDown(ctx context.Context, c *cycle, celsius float64) {
	c.cooldown = true
	c.st.Mode = logic.ModeTelegram
	text := fmt.Sprintf("Temperature too high! %.1f °C", celsius)
	c.logger.Error("overheated, cooling down", "celsius", celsius, "limit", n.MaxTemperature)

	if n.Dial == nil {
		return
	}
	m, err := n.Dial(ctx)
	if err != nil {
		c.logger.Warn("operator link unavailable for overheat warning", "error", err)
		return
	}
	defer m.Close()
	n.reply(c, m, text)
}

func (n *Node) publishBoot(c *cycle, m mqtt.Messenger) {
	event := mqtt.SystemEvent{
		Timestamp: n.Now(),
		Event:     "BOOT",
		Reason:    string(c.cause),
		Retained:  true,
	}
	if n.Tracker != nil {
		event.RawPayload = status.FormatStatusEvent(n.Tracker.Snapshot(), "BOOT", string(c.cause))
	}
	if err := m.PublishSystem(event); err != nil {
		c.logger.Warn("failed to publish boot event", "error", err)
	}
}

// deliverAlarm sends the alarm once the debouncer fires. The counter is reset
// even when delivery fails.
func (n *Node) deliverAlarm(c *cycle, m mqtt.Messenger) {
	st := c.st
	if !n.Debouncer.Fire(st) {
		return
	}
	name := logic.SlotName(st.LastPhotoIndex)
	c.logger.Warn("alarm", "photo", name)

	text := fmt.Sprintf("MOTION DETECTED. Photo %s from %s", name, n.CamID)
	if err := m.SendMessage(text); err != nil {
		c.logger.Error("failed to send alarm", "error", err)
	}
	data, err := n.Photos.Read(st.LastPhotoIndex)
	if err != nil {
		c.logger.Warn("alarm photo unavailable", "photo", name, "error", err)
		return
	}
	if err := m.SendPhoto(mqtt.Photo{Name: name, Caption: text, Data: data}); err != nil {
		c.logger.Error("failed to send alarm photo", "error", err)
	}
}

// deliverPending sends the photo taken by the last PHOTO cycle. A missing file
// clears the reference; a failed send keeps it for the next cycle.
func (n *Node) deliverPending(c *cycle, m mqtt.Messenger) {
	st := c.st
	if _, ok := st.PendingSlot(); !ok {
		return
	}
	name := st.PendingPhotoRef
	data, _, err := n.Photos.ReadRef(name)
	if err != nil {
		c.logger.Warn("pending photo missing", "photo", name, "error", err)
		st.PendingPhotoRef = ""
		return
	}
	caption := fmt.Sprintf("Photo %s from %s", name, n.CamID)
	if err := m.SendPhoto(mqtt.Photo{Name: name, Caption: caption, Data: data}); err != nil {
		c.logger.Error("failed to send pending photo", "photo", name, "error", err)
		return
	}
	st.PendingPhotoRef = ""
	c.logger.Info("pending photo delivered", "photo", name)
}

// awaitCommand waits for the first command with a new id and applies it.
// Redelivered ids are skipped.
func (n *Node) awaitCommand(ctx context.Context, c *cycle, m mqtt.Messenger) logic.Effect {
	st := c.st
	for {
		cmd, err := m.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, mqtt.ErrClosed) {
				c.logger.Warn("receive failed", "error", err)
			}
			return logic.Effect{FetchSlot: -1}
		}
		if !logic.AcceptCommand(st, cmd.ID) {
			c.logger.Debug("duplicate command ignored", "id", cmd.ID)
			continue
		}
		return n.handleCommand(c, m, cmd)
	}
}

func (n *Node) handleCommand(c *cycle, m mqtt.Messenger, cmd mqtt.Command) logic.Effect {
	st := c.st
	none := logic.Effect{FetchSlot: -1}

	intent, err := n.router.Parse(cmd.Text)
	switch {
	case errors.Is(err, command.ErrNotForThisCamera):
		c.logger.Debug("command for another camera", "id", cmd.ID, "text", cmd.Text)
		return none
	case err != nil:
		c.logger.Warn("unrecognized command", "id", cmd.ID, "text", cmd.Text, "error", err)
		n.reply(c, m, fmt.Sprintf("unrecognized command %q", cmd.Text))
		return none
	}

	c.logger.Info("command", "id", cmd.ID, "intent", intent.Kind)
	eff := logic.Apply(st, intent)
	if eff.Rejected != "" {
		c.logger.Warn("command rejected", "id", cmd.ID, "reason", eff.Rejected)
		n.reply(c, m, eff.Rejected)
		return eff
	}
	if eff.Reply != "" {
		n.reply(c, m, eff.Reply)
	}

	switch eff.Report {
	case logic.ReportStatus:
		if n.Tracker != nil {
			n.updatePhotoUsage()
			n.Tracker.Update(c.mode, *st)
			n.reply(c, m, status.FormatReport(n.Tracker.Snapshot()))
		}
	case logic.ReportLogs:
		logs := "no logs"
		if n.Tail != nil && n.Tail.Len() > 0 {
			logs = n.Tail.String()
		}
		n.reply(c, m, logs)
	}

	if eff.FetchSlot >= 0 {
		n.sendSlot(c, m, eff.FetchSlot)
	}
	return eff
}

func (n *Node) sendSlot(c *cycle, m mqtt.Messenger, slot int) {
	name := logic.SlotName(slot)
	data, err := n.Photos.Read(slot)
	if err != nil {
		c.logger.Warn("requested photo missing", "photo", name, "error", err)
		n.reply(c, m, name+" not found")
		return
	}
	caption := fmt.Sprintf("Photo %s from %s", name, n.CamID)
	if err := m.SendPhoto(mqtt.Photo{Name: name, Caption: caption, Data: data}); err != nil {
		c.logger.Error("failed to send photo", "photo", name, "error", err)
	}
}

func (n *Node) reply(c *cycle, m mqtt.Messenger, text string) {
	if err := m.SendMessage(text); err != nil {
		c.logger.Error("failed to send reply", "error", err)
	}
}
