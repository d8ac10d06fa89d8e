package resolver

import (
	"context"
	"fmt"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/raitonoberu/ytsearch"
	"github.com/rs/zerolog"

	"caffonia/internal/song"
)

// YouTube resolves both direct video URLs and free-text searches against
// the video platform.
type YouTube struct {
	client *youtube.Client
	log    zerolog.Logger
}

func NewYouTube(log zerolog.Logger) *YouTube {
	return &YouTube{
		client: &youtube.Client{},
		log:    log.With().Str("provider", "youtube").Logger(),
	}
}

// Search implements Provider. URL inputs skip the search entirely and are
// resolved to metadata directly.
func (y *YouTube) Search(ctx context.Context, query string, limit int) ([]song.Song, error) {
	if isURL(query) {
		s, err := y.fromURL(ctx, query)
		if err != nil {
			return nil, err
		}
		return []song.Song{s}, nil
	}

	search := ytsearch.VideoSearch(query)
	results, err := search.Next()
	if err != nil {
		return nil, fmt.Errorf("video search: %w", err)
	}

	out := make([]song.Song, 0, limit)
	for _, v := range results.Videos {
		if len(out) >= limit {
			break
		}

		artist := "Unknown"
		if v.Channel.Title != "" {
			artist = v.Channel.Title
		}
		thumb := ""
		if len(v.Thumbnails) > 0 {
			thumb = v.Thumbnails[0].URL
		}

		out = append(out, song.Song{
			Title:         v.Title,
			Artist:        artist,
			SourceURL:     "https://www.youtube.com/watch?v=" + v.ID,
			DurationLabel: song.FormatDuration(time.Duration(v.Duration) * time.Second),
			ThumbnailURL:  thumb,
			SourceKind:    song.KindVideo,
		})
	}

	return out, nil
}

func (y *YouTube) fromURL(ctx context.Context, rawURL string) (song.Song, error) {
	video, err := y.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return song.Song{}, fmt.Errorf("video metadata for %s: %w", rawURL, err)
	}

	thumb := ""
	if len(video.Thumbnails) > 0 {
		thumb = video.Thumbnails[0].URL
	}

	y.log.Debug().Str("url", rawURL).Str("title", video.Title).Msg("resolved direct link")

	return song.Song{
		Title:         video.Title,
		Artist:        video.Author,
		SourceURL:     rawURL,
		DurationLabel: song.FormatDuration(video.Duration),
		ThumbnailURL:  thumb,
		SourceKind:    song.KindVideo,
	}, nil
}
