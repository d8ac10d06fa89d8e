package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"caffonia/internal/song"
)

func storeSong(title string) song.Song {
	return song.Song{
		Title:      title,
		Artist:     title + " artist",
		SourceURL:  "https://example.com/" + title,
		SourceKind: song.KindVideo,
	}
}

func newPlaylists(t *testing.T) *PlaylistStore {
	t.Helper()
	s, err := NewPlaylistStore(filepath.Join(t.TempDir(), "playlists.json"), 3)
	if err != nil {
		t.Fatalf("open playlist store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPlaylistLifecycle(t *testing.T) {
	s := newPlaylists(t)

	if err := s.Create("user-1", "roadtrip"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create("user-1", "roadtrip"); !errors.Is(err, ErrPlaylistExists) {
		t.Fatalf("duplicate create err = %v, want ErrPlaylistExists", err)
	}

	for _, title := range []string{"A", "B", "C"} {
		if err := s.AddSong("user-1", "roadtrip", storeSong(title)); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}
	if err := s.AddSong("user-1", "roadtrip", storeSong("D")); !errors.Is(err, ErrPlaylistFull) {
		t.Fatalf("over-cap add err = %v, want ErrPlaylistFull", err)
	}

	pl, err := s.Get("user-1", "roadtrip")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(pl.Songs) != 3 || pl.Songs[0].Title != "A" {
		t.Fatalf("songs = %+v, want [A B C]", pl.Songs)
	}

	if err := s.RemoveSong("user-1", "roadtrip", storeSong("B").SourceURL); err != nil {
		t.Fatalf("remove: %v", err)
	}
	pl, _ = s.Get("user-1", "roadtrip")
	if len(pl.Songs) != 2 || pl.Songs[1].Title != "C" {
		t.Fatalf("songs after remove = %+v, want [A C]", pl.Songs)
	}
	if err := s.RemoveSong("user-1", "roadtrip", "https://example.com/nope"); !errors.Is(err, ErrSongNotInList) {
		t.Fatalf("remove missing err = %v, want ErrSongNotInList", err)
	}

	if err := s.Delete("user-1", "roadtrip"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get("user-1", "roadtrip"); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("get deleted err = %v, want ErrPlaylistNotFound", err)
	}
}

func TestPlaylistsArePerUser(t *testing.T) {
	s := newPlaylists(t)

	if err := s.Create("user-1", "mine"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("user-2", "mine"); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("cross-user get err = %v, want ErrPlaylistNotFound", err)
	}

	lists, err := s.List("user-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 0 {
		t.Fatalf("user-2 lists = %+v, want none", lists)
	}
}

func TestFavoritesDedupBySourceURL(t *testing.T) {
	s, err := NewFavoriteStore(filepath.Join(t.TempDir(), "favorites.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Add("user-1", storeSong("A")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("user-1", storeSong("A")); !errors.Is(err, ErrAlreadyFavorite) {
		t.Fatalf("duplicate add err = %v, want ErrAlreadyFavorite", err)
	}
	if err := s.Add("user-1", storeSong("B")); err != nil {
		t.Fatal(err)
	}

	favs, err := s.List("user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 2 {
		t.Fatalf("favorites = %+v, want 2", favs)
	}

	if err := s.Remove("user-1", storeSong("A").SourceURL); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove("user-1", storeSong("A").SourceURL); !errors.Is(err, ErrFavoriteMissing) {
		t.Fatalf("double remove err = %v, want ErrFavoriteMissing", err)
	}

	favs, _ = s.List("user-1")
	if len(favs) != 1 || favs[0].Title != "B" {
		t.Fatalf("favorites after remove = %+v, want [B]", favs)
	}
}

func TestStatsRecordAndBound(t *testing.T) {
	s, err := NewStatsStore(filepath.Join(t.TempDir(), "stats.json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, ok, err := s.Get("user-1"); err != nil || ok {
		t.Fatalf("fresh get = ok=%t err=%v, want no record", ok, err)
	}

	// Anonymous plays are not recorded.
	if err := s.RecordPlay("", storeSong("X")); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 15; i++ {
		if err := s.RecordPlay("user-1", storeSong(string(rune('A'+i)))); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	stats, ok, err := s.Get("user-1")
	if err != nil || !ok {
		t.Fatalf("get = ok=%t err=%v", ok, err)
	}
	if stats.TotalPlayed != 15 {
		t.Fatalf("total = %d, want 15", stats.TotalPlayed)
	}
	if len(stats.Recent) != recentPlaysLimit {
		t.Fatalf("recent len = %d, want %d", len(stats.Recent), recentPlaysLimit)
	}
	// Most recent first.
	if stats.Recent[0].Title != "O" {
		t.Fatalf("recent[0] = %s, want O", stats.Recent[0].Title)
	}
}
