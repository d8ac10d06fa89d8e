package session

import (
	"context"
	"errors"

	"caffonia/internal/song"
)

// advance selects the next song and starts it, or tears the session down
// when nothing is left to play. It runs on the event goroutine only.
func (s *Session) advance() {
	if s.state == StateTornDown {
		return
	}
	s.state = StateAdvancing

	for {
		if !s.guard.Allow() {
			s.fatal(errors.New("too many failed advances in a row"))
			return
		}

		next, ok := s.pickNext()
		if !ok {
			s.finish()
			return
		}

		s.state = StateConnecting
		if s.conn == nil {
			conn, err := s.connector.Join(s.ctx, s.cfg.GuildID, s.cfg.VoiceChannelID)
			if err != nil {
				s.fatal(err)
				return
			}
			s.conn = conn
		}

		playCtx, cancel := context.WithCancel(s.ctx)
		s.playCancel = cancel
		s.playSeq++
		seq := s.playSeq

		err := s.conn.Play(playCtx, *next, s.volume, s.mode.Quality, func(streamErr error) {
			if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
				s.postAsync(event{kind: evStreamError, err: streamErr, seq: seq})
				return
			}
			s.postAsync(event{kind: evStreamIdle, seq: seq})
		})
		if err != nil {
			// Stream acquisition failed; recover by trying whatever
			// comes next. The guard caps how long this can go on.
			cancel()
			s.log.Warn().Err(err).Str("title", next.Title).Msg("failed to start stream, trying next")
			s.state = StateAdvancing
			continue
		}

		s.state = StatePlaying
		s.awaitingTerminal = true
		s.guard.Reset()
		s.emit(StatusEvent{Kind: StatusPlaying, Song: *next})
		s.log.Info().Str("title", next.Title).Str("artist", next.Artist).
			Int("queue_len", len(s.pending)).Msg("now playing")
		return
	}
}

// pickNext applies the selection priority: loop-song replay, pending queue
// (random pick under shuffle), queue-loop refill from history, autoplay
// recommendation. The previous current song is pushed onto history for
// every path except the loop-song replay, which leaves state untouched.
func (s *Session) pickNext() (*song.Song, bool) {
	if s.mode.Loop == LoopSong && s.current != nil {
		replay := *s.current
		return &replay, true
	}

	var next song.Song
	switch {
	case len(s.pending) > 0:
		next = s.takeFromPending()

	case s.mode.Loop == LoopQueue && len(s.history) > 0:
		// Round-trip: replay the finished batch in its original order.
		s.pending = append(s.pending, s.history...)
		s.history = nil
		next = s.takeFromPending()

	case s.mode.Autoplay && s.current != nil:
		rec, err := s.recommender.Recommend(s.ctx, s.current.Artist)
		if err != nil {
			s.log.Debug().Err(err).Msg("autoplay recommendation failed")
			return nil, false
		}
		rec.RequestedBy = s.current.RequestedBy
		next = rec

	default:
		return nil, false
	}

	s.pushHistory()
	s.current = &next
	return &next, true
}

func (s *Session) takeFromPending() song.Song {
	idx := 0
	if s.mode.Shuffle {
		idx = s.rng.Intn(len(s.pending))
	}
	next := s.pending[idx]
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	return next
}

// pushHistory records the finished current song, dropping the oldest
// entry past the bound.
func (s *Session) pushHistory() {
	if s.current == nil {
		return
	}
	s.history = append(s.history, *s.current)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[len(s.history)-s.cfg.HistorySize:]
	}
}

// stopCurrentStream invalidates the running playback attempt so its
// terminal signal is ignored, then cancels the stream.
func (s *Session) stopCurrentStream() {
	s.awaitingTerminal = false
	s.playSeq++
	if s.playCancel != nil {
		s.playCancel()
		s.playCancel = nil
	}
}

// finish is the natural end: queue empty, no continuation mode applies.
func (s *Session) finish() {
	s.pushHistory()
	s.current = nil
	s.log.Info().Msg("queue exhausted, tearing down")
	s.teardown()
}

// fatal tears down after the advance guard trips or voice setup fails.
func (s *Session) fatal(cause error) {
	err := errors.Join(ErrFatalSession, cause)
	s.log.Error().Err(cause).Msg("fatal session failure")
	s.emit(StatusEvent{Kind: StatusFatal, Err: err})
	s.teardown()
}

// teardown releases every owned resource exactly once: the stream, the
// registry entry, the voice connection. The registry entry goes first so
// a replacement session can be created while a slow voice disconnect is
// still in flight. Runs on the event goroutine only; the state guard
// makes it safe on an already-dead session.
func (s *Session) teardown() {
	if s.state == StateTornDown {
		return
	}
	s.state = StateTornDown

	s.stopCurrentStream()
	s.cancel()
	if s.onTeardown != nil {
		s.onTeardown(s)
	}

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.Warn().Err(err).Msg("voice connection close failed")
		}
		s.conn = nil
	}

	close(s.done)
}

