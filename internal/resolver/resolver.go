// Package resolver maps free-text queries and URLs to playable songs.
//
// Two providers are supported: the video platform (always available) and
// the streaming catalog (enabled only when credentials are configured).
// Lookups are pure: failures are reported to the caller and never retried
// here, retry policy belongs upstream.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"caffonia/internal/song"
)

var (
	// ErrNotFound means the search produced no candidates.
	ErrNotFound = errors.New("no results for query")
	// ErrProviderUnavailable means the requested provider is not configured.
	ErrProviderUnavailable = errors.New("provider not configured")
)

// Provider turns a query into ranked song candidates.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]song.Song, error)
}

// Resolver routes queries to the provider matching the requested source kind.
type Resolver struct {
	video   Provider
	catalog Provider // nil when the catalog is not configured
	log     zerolog.Logger
}

func New(video, catalog Provider, log zerolog.Logger) *Resolver {
	return &Resolver{
		video:   video,
		catalog: catalog,
		log:     log.With().Str("component", "resolver").Logger(),
	}
}

// CatalogAvailable reports whether streaming-catalog lookups can be served.
func (r *Resolver) CatalogAvailable() bool {
	return r.catalog != nil
}

// Resolve returns the first ranked candidate for the query.
func (r *Resolver) Resolve(ctx context.Context, query string, kind song.Kind) (song.Song, error) {
	results, err := r.ResolveN(ctx, query, kind, 1)
	if err != nil {
		return song.Song{}, err
	}
	return results[0], nil
}

// ResolveN returns up to n ranked candidates. Used by mood seeding and
// other batch callers.
func (r *Resolver) ResolveN(ctx context.Context, query string, kind song.Kind, n int) ([]song.Song, error) {
	if n < 1 {
		n = 1
	}

	p, err := r.provider(kind)
	if err != nil {
		return nil, err
	}

	results, err := p.Search(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	r.log.Debug().Str("query", query).Str("kind", string(kind)).
		Int("results", len(results)).Msg("query resolved")
	return results, nil
}

// Recommend returns one candidate for autoplay, seeded by the artist of
// the last played song. Seeding stays shallow on purpose.
func (r *Resolver) Recommend(ctx context.Context, seedArtist string) (song.Song, error) {
	if seedArtist == "" {
		return song.Song{}, ErrNotFound
	}
	return r.Resolve(ctx, seedArtist+" music", song.KindVideo)
}

func (r *Resolver) provider(kind song.Kind) (Provider, error) {
	switch kind {
	case song.KindCatalog:
		if r.catalog == nil {
			return nil, ErrProviderUnavailable
		}
		return r.catalog, nil
	default:
		return r.video, nil
	}
}

// isURL tells direct links apart from free-text queries.
func isURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
