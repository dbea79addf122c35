// Package status holds what the current boot looks like from outside: the
// running mode, the record as last seen by the cycle, link and storage health.
// The cycle writes it; the web page and the status report read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/alarmguard/internal/logic"
)

// Config is the static part shown on the status page.
type Config struct {
	CamID    string
	GroupID  string
	Broker   string
	HTTPAddr string
	Version  string
}

// PhotoUsage summarizes the photo slots on disk.
type PhotoUsage struct {
	Count int
	Bytes int64
}

// Snapshot is a copy of the tracked state at one instant.
type Snapshot struct {
	BootID        string
	Cause         logic.WakeCause
	Mode          logic.BootMode
	State         logic.State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Photos        PhotoUsage
	Config        Config
}

// Uptime is how long the current boot has been running.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker is shared between the cycle and the HTTP handlers.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetBoot records the identity of the running boot cycle.
func (t *Tracker) SetBoot(id string, cause logic.WakeCause) {
	t.mu.Lock()
	t.snap.BootID = id
	t.snap.Cause = cause
	t.mu.Unlock()
}

// Update sets the running mode and the current record.
func (t *Tracker) Update(mode logic.BootMode, st logic.State) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.State = st
	t.mu.Unlock()
}

// SetMQTTConnected records whether the operator link is up.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

func (t *Tracker) SetPhotos(count int, bytes int64) {
	t.mu.Lock()
	t.snap.Photos = PhotoUsage{Count: count, Bytes: bytes}
	t.mu.Unlock()
}

// Snapshot copies the tracked state and stamps it with the current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
