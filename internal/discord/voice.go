package discord

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"layeh.com/gopus"

	"caffonia/internal/session"
	"caffonia/internal/song"
)

// VoiceConnector joins guild voice channels over an open gateway session.
type VoiceConnector struct {
	dg  *discordgo.Session
	log zerolog.Logger
}

func NewVoiceConnector(dg *discordgo.Session, log zerolog.Logger) *VoiceConnector {
	return &VoiceConnector{dg: dg, log: log}
}

func (c *VoiceConnector) Join(ctx context.Context, guildID, channelID string) (session.Conn, error) {
	vc, err := c.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("join voice channel %s: %w", channelID, err)
	}
	return &voiceConn{
		vc:  vc,
		log: c.log.With().Str("guild_id", guildID).Logger(),
	}, nil
}

// voiceConn streams opus frames into one guild's voice connection. Pause
// gates the send loop without tearing the decoder down; volume scales PCM
// samples before encoding so changes land mid-track.
type voiceConn struct {
	vc     *discordgo.VoiceConnection
	log    zerolog.Logger
	volume atomic.Int32
	paused atomic.Bool

	mu     sync.Mutex
	closed bool
}

func (c *voiceConn) Play(ctx context.Context, sng song.Song, volumePercent int, quality session.Quality, done func(error)) error {
	pcm, cleanup, err := openSource(ctx, sng, quality)
	if err != nil {
		return err
	}

	c.volume.Store(int32(volumePercent))
	c.paused.Store(false)

	if err := c.vc.Speaking(true); err != nil {
		pcm.Close()
		cleanup()
		return fmt.Errorf("set speaking: %w", err)
	}

	c.log.Debug().Str("title", sng.Title).Msg("stream started")

	go func() {
		streamErr := c.stream(ctx, pcm)
		pcm.Close()
		cleanup()
		_ = c.vc.Speaking(false)
		done(streamErr)
	}()
	return nil
}

// stream pumps PCM frames through the opus encoder until the source ends or
// ctx is cancelled. A nil return means natural end of track.
func (c *voiceConn) stream(ctx context.Context, pcm io.Reader) error {
	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		return fmt.Errorf("opus encoder: %w", err)
	}

	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)

	for {
		if ctx.Err() != nil {
			return context.Canceled
		}

		if c.paused.Load() {
			select {
			case <-ctx.Done():
				return context.Canceled
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		if _, err := io.ReadFull(pcm, pcmBuf); err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read pcm: %w", err)
		}

		scale := int32(c.volume.Load())
		for i := range intBuf {
			sample := int32(int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2])))
			intBuf[i] = int16(sample * scale / 100)
		}

		opus, err := encoder.Encode(intBuf, frameSize, len(pcmBuf))
		if err != nil {
			return fmt.Errorf("opus encode: %w", err)
		}

		select {
		case <-ctx.Done():
			return context.Canceled
		case c.vc.OpusSend <- opus:
		}
	}
}

func (c *voiceConn) Pause() error {
	c.paused.Store(true)
	return nil
}

func (c *voiceConn) Resume() error {
	c.paused.Store(false)
	return nil
}

func (c *voiceConn) SetVolume(percent int) {
	c.volume.Store(int32(percent))
}

func (c *voiceConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.vc.Disconnect()
}
