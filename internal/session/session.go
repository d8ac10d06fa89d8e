// Package session owns the per-guild playback queue and its lifecycle
// state machine. All mutations of one session happen on its single event
// goroutine; public methods post events and, where a result is needed,
// wait for the reply. Sessions for different guilds are fully independent.
package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"caffonia/internal/song"
	"caffonia/pkg/burstguard"
)

// Config carries the per-session identity and the tunables shared by all
// sessions.
type Config struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string

	MaxQueueSize  int
	HistorySize   int
	DefaultVolume int
	GuardBurst    int
	GuardWindow   time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxQueueSize < 1 {
		c.MaxQueueSize = 100
	}
	if c.HistorySize < 1 {
		c.HistorySize = 50
	}
	if c.DefaultVolume < 0 || c.DefaultVolume > 100 {
		c.DefaultVolume = 50
	}
	if c.GuardBurst < 1 {
		c.GuardBurst = 5
	}
	if c.GuardWindow <= 0 {
		c.GuardWindow = 30 * time.Second
	}
}

type eventKind int

const (
	evEnqueue eventKind = iota
	evPause
	evResume
	evSkip
	evStop
	evSetVolume
	evSetLoop
	evCycleLoop
	evToggleShuffle
	evToggleAutoplay
	evSetQuality
	evSetMood
	evStreamIdle
	evStreamError
	evChannelEmpty
	evSnapshot
)

// event is the only way state reaches the run loop. seq ties terminal
// stream signals to the playback attempt that produced them; zero means
// "whatever is current" and is used by external signalers.
type event struct {
	kind    eventKind
	songs   []song.Song
	intVal  int
	loop    LoopMode
	quality Quality
	mood    string
	err     error
	seq     uint64

	reply    chan error
	intReply chan int
	snapshot chan Status
}

// Session is the live playback state for one guild.
type Session struct {
	cfg         Config
	connector   Connector
	recommender Recommender
	log         zerolog.Logger

	events chan event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	status     chan StatusEvent
	onTeardown func(*Session)

	// Everything below is owned by the run goroutine.
	state            State
	pending          []song.Song
	current          *song.Song
	history          []song.Song
	mode             Mode
	volume           int
	mood             string
	conn             Conn
	playSeq          uint64
	playCancel       context.CancelFunc
	awaitingTerminal bool
	guard            *burstguard.Guard
	rng              *rand.Rand
}

// New constructs a session and starts its event loop. onTeardown is called
// exactly once, with the session itself, when the session dies.
func New(cfg Config, connector Connector, recommender Recommender, log zerolog.Logger, onTeardown func(*Session)) *Session {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:         cfg,
		connector:   connector,
		recommender: recommender,
		log:         log.With().Str("component", "session").Str("guild_id", cfg.GuildID).Logger(),
		events:      make(chan event, 32),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
		status:      make(chan StatusEvent, 16),
		onTeardown:  onTeardown,
		state:       StateIdle,
		volume:      cfg.DefaultVolume,
		guard:       burstguard.New(cfg.GuardBurst, cfg.GuardWindow),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	go s.run()
	return s
}

// GuildID returns the owning guild.
func (s *Session) GuildID() string { return s.cfg.GuildID }

// VoiceChannelID returns the channel the session plays into.
func (s *Session) VoiceChannelID() string { return s.cfg.VoiceChannelID }

// TextChannelID returns the channel that receives playback notices.
func (s *Session) TextChannelID() string { return s.cfg.TextChannelID }

// Status exposes the session's event feed for observers (notices, stats).
func (s *Session) Status() <-chan StatusEvent { return s.status }

// Done is closed when the session tears down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Enqueue appends songs to the pending queue, in order, stopping at the
// first rejection. It returns how many were accepted; err is ErrQueueFull
// when at least one song was rejected. The first accepted song on an idle
// session triggers playback.
func (s *Session) Enqueue(songs ...song.Song) (int, error) {
	ev := event{kind: evEnqueue, songs: songs, reply: make(chan error, 1), intReply: make(chan int, 1)}
	if err := s.post(ev); err != nil {
		return 0, err
	}
	return s.waitInt(ev)
}

// Pause suspends an active stream. Valid only while playing.
func (s *Session) Pause() error { return s.call(event{kind: evPause}) }

// Resume continues a paused stream. Valid only while paused.
func (s *Session) Resume() error { return s.call(event{kind: evResume}) }

// Skip ends the current track and advances.
func (s *Session) Skip() error { return s.call(event{kind: evSkip}) }

// Stop clears the queue, releases the connection and removes the session
// from its registry. The registry entry is gone by the time Stop returns,
// so the caller may immediately create a replacement session.
func (s *Session) Stop() error {
	err := s.call(event{kind: evStop})
	if err == ErrTornDown {
		// Already gone; stop is idempotent from the caller's view.
		return nil
	}
	return err
}

// SetVolume clamps to [0,100], applies to the live stream when one exists
// and returns the applied value.
func (s *Session) SetVolume(percent int) (int, error) {
	ev := event{kind: evSetVolume, intVal: percent, reply: make(chan error, 1), intReply: make(chan int, 1)}
	if err := s.post(ev); err != nil {
		return 0, err
	}
	return s.waitInt(ev)
}

// SetLoop pins the loop mode.
func (s *Session) SetLoop(m LoopMode) error { return s.call(event{kind: evSetLoop, loop: m}) }

// CycleLoop rotates off -> song -> queue and returns the new mode.
func (s *Session) CycleLoop() (LoopMode, error) {
	ev := event{kind: evCycleLoop, reply: make(chan error, 1), intReply: make(chan int, 1)}
	if err := s.post(ev); err != nil {
		return LoopOff, err
	}
	n, err := s.waitInt(ev)
	return LoopMode(n), err
}

// ToggleShuffle flips shuffle and returns the new value.
func (s *Session) ToggleShuffle() (bool, error) {
	ev := event{kind: evToggleShuffle, reply: make(chan error, 1), intReply: make(chan int, 1)}
	if err := s.post(ev); err != nil {
		return false, err
	}
	n, err := s.waitInt(ev)
	return n == 1, err
}

// ToggleAutoplay flips autoplay and returns the new value.
func (s *Session) ToggleAutoplay() (bool, error) {
	ev := event{kind: evToggleAutoplay, reply: make(chan error, 1), intReply: make(chan int, 1)}
	if err := s.post(ev); err != nil {
		return false, err
	}
	n, err := s.waitInt(ev)
	return n == 1, err
}

// SetQuality stores the format preference for the next stream.
func (s *Session) SetQuality(q Quality) error { return s.call(event{kind: evSetQuality, quality: q}) }

// SetMood stores a mood label shown in now-playing summaries.
func (s *Session) SetMood(label string) error { return s.call(event{kind: evSetMood, mood: label}) }

// OnStreamIdle signals a natural end of the current track.
func (s *Session) OnStreamIdle() { s.postAsync(event{kind: evStreamIdle}) }

// OnStreamError signals a mid-stream failure; it is handled exactly like
// a natural end so playback keeps moving.
func (s *Session) OnStreamError(err error) { s.postAsync(event{kind: evStreamError, err: err}) }

// OnVoiceChannelEmpty tears the session down because no listeners remain.
func (s *Session) OnVoiceChannelEmpty() { s.postAsync(event{kind: evChannelEmpty}) }

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() (Status, error) {
	ev := event{kind: evSnapshot, snapshot: make(chan Status, 1)}
	if err := s.post(ev); err != nil {
		return Status{}, err
	}
	select {
	case st := <-ev.snapshot:
		return st, nil
	case <-s.done:
		select {
		case st := <-ev.snapshot:
			return st, nil
		default:
			return Status{}, ErrTornDown
		}
	}
}

func (s *Session) post(ev event) error {
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrTornDown
	}
}

func (s *Session) postAsync(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Session) call(ev event) error {
	ev.reply = make(chan error, 1)
	if err := s.post(ev); err != nil {
		return err
	}
	select {
	case err := <-ev.reply:
		return err
	case <-s.done:
		// The handler may have replied right before tearing down.
		select {
		case err := <-ev.reply:
			return err
		default:
			return ErrTornDown
		}
	}
}

func (s *Session) waitInt(ev event) (int, error) {
	select {
	case err := <-ev.reply:
		return <-ev.intReply, err
	case <-s.done:
		select {
		case err := <-ev.reply:
			return <-ev.intReply, err
		default:
			return 0, ErrTornDown
		}
	}
}

func (s *Session) run() {
	for ev := range s.events {
		s.handle(ev)
		if s.state == StateTornDown {
			return
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev.kind {
	case evEnqueue:
		s.handleEnqueue(ev)

	case evPause:
		if s.state != StatePlaying {
			ev.reply <- ErrPreconditionFailed
			return
		}
		if err := s.conn.Pause(); err != nil {
			ev.reply <- err
			return
		}
		s.state = StatePaused
		s.emit(StatusEvent{Kind: StatusPaused})
		ev.reply <- nil

	case evResume:
		if s.state != StatePaused {
			ev.reply <- ErrPreconditionFailed
			return
		}
		if err := s.conn.Resume(); err != nil {
			ev.reply <- err
			return
		}
		s.state = StatePlaying
		s.emit(StatusEvent{Kind: StatusResumed})
		ev.reply <- nil

	case evSkip:
		if s.current == nil {
			ev.reply <- ErrPreconditionFailed
			return
		}
		ev.reply <- nil
		s.stopCurrentStream()
		s.advance()

	case evStop:
		s.pending = nil
		s.current = nil
		s.emit(StatusEvent{Kind: StatusStopped})
		// Teardown completes before the caller is released, so a
		// stop-then-recreate sequence never sees the dying session
		// in the registry.
		s.teardown()
		ev.reply <- nil

	case evSetVolume:
		v := ev.intVal
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		s.volume = v
		if s.conn != nil && (s.state == StatePlaying || s.state == StatePaused) {
			s.conn.SetVolume(v)
		}
		ev.reply <- nil
		ev.intReply <- v

	case evSetLoop:
		s.mode.Loop = ev.loop
		ev.reply <- nil

	case evCycleLoop:
		s.mode.Loop = s.mode.Loop.Next()
		ev.reply <- nil
		ev.intReply <- int(s.mode.Loop)

	case evToggleShuffle:
		s.mode.Shuffle = !s.mode.Shuffle
		ev.reply <- nil
		ev.intReply <- boolToInt(s.mode.Shuffle)

	case evToggleAutoplay:
		s.mode.Autoplay = !s.mode.Autoplay
		ev.reply <- nil
		ev.intReply <- boolToInt(s.mode.Autoplay)

	case evSetQuality:
		s.mode.Quality = ev.quality
		ev.reply <- nil

	case evSetMood:
		s.mood = ev.mood
		ev.reply <- nil

	case evStreamIdle, evStreamError:
		s.handleTerminal(ev)

	case evChannelEmpty:
		s.log.Info().Msg("voice channel empty, tearing down")
		s.teardown()

	case evSnapshot:
		ev.snapshot <- s.snapshotLocked()
	}
}

func (s *Session) handleEnqueue(ev event) {
	added := 0
	var err error
	for _, sng := range ev.songs {
		if len(s.pending) >= s.cfg.MaxQueueSize {
			err = ErrQueueFull
			break
		}
		s.pending = append(s.pending, sng)
		added++
	}

	ev.reply <- err
	ev.intReply <- added

	if added > 0 && s.current != nil {
		s.emit(StatusEvent{Kind: StatusAdded, Song: ev.songs[0]})
	}
	if added > 0 && s.current == nil && s.state == StateIdle {
		s.advance()
	}
}

// handleTerminal processes end-of-stream signals. Exactly one advance runs
// per playback attempt: once the first terminal signal for the current
// attempt is consumed, later ones (an idle racing an error, duplicate
// external signals) are dropped.
func (s *Session) handleTerminal(ev event) {
	if !s.awaitingTerminal {
		return
	}
	if ev.seq != 0 && ev.seq != s.playSeq {
		return
	}
	s.awaitingTerminal = false

	if ev.kind == evStreamError {
		s.log.Warn().Err(ev.err).Msg("stream failed, advancing")
	}
	s.advance()
}

func (s *Session) snapshotLocked() Status {
	st := Status{
		State:   s.state,
		Pending: append([]song.Song(nil), s.pending...),
		History: append([]song.Song(nil), s.history...),
		Mode:    s.mode,
		Volume:  s.volume,
		Mood:    s.mood,
	}
	if s.current != nil {
		cur := *s.current
		st.Current = &cur
	}
	return st
}

func (s *Session) emit(ev StatusEvent) {
	select {
	case s.status <- ev:
	default:
		s.log.Debug().Int("kind", int(ev.Kind)).Msg("status event dropped, channel full")
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
