package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"caffonia/internal/song"
)

// Spotify resolves free-text queries against the streaming catalog. Catalog
// entries carry no raw audio, so every hit is re-resolved through the video
// provider for a streamable URL while keeping its catalog identity.
type Spotify struct {
	client *spotify.Client
	video  Provider
	log    zerolog.Logger
}

// NewSpotify builds a client-credentials catalog client. It fails when the
// credential exchange fails; callers treat that as the provider being
// unavailable, not as a startup error.
func NewSpotify(ctx context.Context, clientID, clientSecret string, video Provider, log zerolog.Logger) (*Spotify, error) {
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	token, err := conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify credentials: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Spotify{
		client: spotify.New(httpClient),
		video:  video,
		log:    log.With().Str("provider", "spotify").Logger(),
	}, nil
}

// Search implements Provider.
func (s *Spotify) Search(ctx context.Context, query string, limit int) ([]song.Song, error) {
	results, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, nil
	}

	out := make([]song.Song, 0, limit)
	for i := range results.Tracks.Tracks {
		if len(out) >= limit {
			break
		}
		track := &results.Tracks.Tracks[i]

		resolved, err := s.toPlayable(ctx, track)
		if err != nil {
			s.log.Warn().Err(err).Str("track", track.Name).Msg("catalog hit has no playable source, skipping")
			continue
		}
		out = append(out, resolved)
	}

	return out, nil
}

// toPlayable finds a streamable source for a catalog track via the video
// provider and merges the catalog metadata over it.
func (s *Spotify) toPlayable(ctx context.Context, track *spotify.FullTrack) (song.Song, error) {
	artist := "Unknown"
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}

	candidates, err := s.video.Search(ctx, artist+" "+track.Name, 1)
	if err != nil {
		return song.Song{}, err
	}
	if len(candidates) == 0 {
		return song.Song{}, ErrNotFound
	}

	resolved := candidates[0]
	resolved.Title = track.Name
	resolved.Artist = joinArtists(track.Artists)
	resolved.DurationLabel = song.FormatDuration(track.TimeDuration())
	resolved.SourceKind = song.KindCatalog
	if len(track.Album.Images) > 0 {
		resolved.ThumbnailURL = track.Album.Images[0].URL
	}
	return resolved, nil
}

func joinArtists(artists []spotify.SimpleArtist) string {
	if len(artists) == 0 {
		return "Unknown"
	}
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
