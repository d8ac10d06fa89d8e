package session

import (
	"context"

	"caffonia/internal/song"
)

// Connector joins voice channels. The discord layer provides the real
// implementation; tests substitute fakes.
type Connector interface {
	Join(ctx context.Context, guildID, channelID string) (Conn, error)
}

// Conn is an exclusive voice connection handle owned by one session.
type Conn interface {
	// Play starts streaming s and returns once the stream is underway.
	// done is invoked exactly once, from another goroutine, when the
	// stream terminates; nil means a natural end of track. Cancelling
	// ctx stops the stream.
	Play(ctx context.Context, s song.Song, volumePercent int, quality Quality, done func(error)) error

	Pause() error
	Resume() error
	SetVolume(percent int)

	// Close releases the connection. It must be safe to call more
	// than once and after the connection already died.
	Close() error
}

// Recommender supplies autoplay candidates seeded by the last played artist.
type Recommender interface {
	Recommend(ctx context.Context, seedArtist string) (song.Song, error)
}
