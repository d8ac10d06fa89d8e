package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Settings are the tunables shared by every session a registry creates.
type Settings struct {
	MaxQueueSize  int
	HistorySize   int
	DefaultVolume int
	GuardBurst    int
	GuardWindow   time.Duration
}

// Registry maps guild IDs to at most one live session each. Sessions
// remove themselves on teardown; removal compares session identity so a
// torn-down session can never evict its replacement.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	settings    Settings
	connector   Connector
	recommender Recommender
	log         zerolog.Logger

	// onCreate observes new sessions (status listeners, stats).
	onCreate func(*Session)
}

func NewRegistry(settings Settings, connector Connector, recommender Recommender, log zerolog.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		settings:    settings,
		connector:   connector,
		recommender: recommender,
		log:         log,
	}
}

// OnCreate registers a hook invoked for every newly constructed session,
// before any playback starts. Must be set before first use.
func (r *Registry) OnCreate(fn func(*Session)) { r.onCreate = fn }

// GetOrCreate returns the guild's live session, constructing one bound to
// the given channels when none exists. Channel refs of an existing
// session are left as they are.
func (r *Registry) GetOrCreate(guildID, voiceChannelID, textChannelID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}

	cfg := Config{
		GuildID:        guildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  textChannelID,
		MaxQueueSize:   r.settings.MaxQueueSize,
		HistorySize:    r.settings.HistorySize,
		DefaultVolume:  r.settings.DefaultVolume,
		GuardBurst:     r.settings.GuardBurst,
		GuardWindow:    r.settings.GuardWindow,
	}

	s := New(cfg, r.connector, r.recommender, r.log, func(dead *Session) {
		r.removeExact(guildID, dead)
	})
	r.sessions[guildID] = s

	if r.onCreate != nil {
		r.onCreate(s)
	}
	return s
}

// Get returns the guild's session, if any.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Remove drops the guild's entry. Idempotent.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guildID)
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StopAll stops every live session; used on shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.Unlock()

	for _, s := range live {
		_ = s.Stop()
	}
}

// removeExact deletes the entry only while it still points at dead.
func (r *Registry) removeExact(guildID string, dead *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[guildID]; ok && cur == dead {
		delete(r.sessions, guildID)
	}
}

// StopGuild stops the guild's session if one exists.
func (r *Registry) StopGuild(guildID string) bool {
	s, ok := r.Get(guildID)
	if !ok {
		return false
	}
	_ = s.Stop()
	return true
}

// PauseGuild pauses the guild's session if one is playing.
func (r *Registry) PauseGuild(guildID string) bool {
	s, ok := r.Get(guildID)
	if !ok {
		return false
	}
	return s.Pause() == nil
}

// ResumeGuild resumes the guild's session if one is paused.
func (r *Registry) ResumeGuild(guildID string) bool {
	s, ok := r.Get(guildID)
	if !ok {
		return false
	}
	return s.Resume() == nil
}
