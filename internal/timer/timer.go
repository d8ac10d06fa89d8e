// Package timer runs the per-guild sleep and pomodoro timers. Each timer
// is a named cancellable job; starting a timer for a guild replaces the
// previous one of the same kind, and every job is safe to fire after the
// guild's playback session is already gone.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Control is the slice of playback control the timers need.
type Control interface {
	StopGuild(guildID string) bool
	PauseGuild(guildID string) bool
	ResumeGuild(guildID string) bool
}

// Notifier posts a user-visible message to a text channel.
type Notifier func(channelID, message string)

type job struct {
	name   string
	cancel context.CancelFunc
}

// Manager owns all running timers.
type Manager struct {
	mu      sync.Mutex
	jobs    map[string]*job
	control Control
	notify  Notifier
	log     zerolog.Logger

	// Pomodoro phase lengths; shortened in tests.
	WorkPeriod time.Duration
	RestPeriod time.Duration
}

func NewManager(control Control, notify Notifier, log zerolog.Logger) *Manager {
	return &Manager{
		jobs:       make(map[string]*job),
		control:    control,
		notify:     notify,
		log:        log.With().Str("component", "timer").Logger(),
		WorkPeriod: 25 * time.Minute,
		RestPeriod: 5 * time.Minute,
	}
}

// StartSleep stops the guild's playback after d. A previous sleep timer
// for the guild is cancelled first.
func (m *Manager) StartSleep(guildID, channelID string, d time.Duration) {
	m.start("sleep:"+guildID, func(ctx context.Context) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}

		if m.control.StopGuild(guildID) {
			m.notify(channelID, "💤 Sleep timer fired, playback stopped.")
		}
		m.log.Info().Str("guild_id", guildID).Msg("sleep timer fired")
	})
}

// StartPomodoro alternates work (music plays) and rest (music paused)
// periods for the given number of cycles.
func (m *Manager) StartPomodoro(guildID, channelID string, cycles int) {
	if cycles < 1 {
		cycles = 4
	}

	m.start("pomodoro:"+guildID, func(ctx context.Context) {
		for cycle := 1; cycle <= cycles; cycle++ {
			m.notify(channelID, fmt.Sprintf("🍅 Cycle %d/%d: work period, music on.", cycle, cycles))
			m.control.ResumeGuild(guildID)
			if !sleepCtx(ctx, m.WorkPeriod) {
				return
			}

			m.notify(channelID, "☕ Rest period, music paused.")
			m.control.PauseGuild(guildID)
			if !sleepCtx(ctx, m.RestPeriod) {
				return
			}
		}

		m.control.ResumeGuild(guildID)
		m.notify(channelID, "🎉 Pomodoro session complete.")
	})
}

// Cancel stops every timer for the guild. Idempotent.
func (m *Manager) Cancel(guildID string) {
	m.stop("sleep:" + guildID)
	m.stop("pomodoro:" + guildID)
}

// CancelKind stops one timer kind ("sleep" or "pomodoro") for the guild.
func (m *Manager) CancelKind(kind, guildID string) {
	m.stop(kind + ":" + guildID)
}

// CancelAll stops everything; used on shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
}

// Active reports whether a timer of the given kind runs for the guild.
func (m *Manager) Active(kind, guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[kind+":"+guildID]
	return ok
}

func (m *Manager) start(name string, run func(ctx context.Context)) {
	m.stop(name)

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{name: name, cancel: cancel}

	m.mu.Lock()
	m.jobs[name] = j
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			if cur, ok := m.jobs[name]; ok && cur == j {
				delete(m.jobs, name)
			}
			m.mu.Unlock()
		}()
		run(ctx)
	}()
}

func (m *Manager) stop(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[name]; ok {
		j.cancel()
		delete(m.jobs, name)
	}
}

// sleepCtx waits d; false means the context was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
