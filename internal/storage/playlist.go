// Package storage persists the side-system state (playlists, favorites,
// play statistics) as independent JSON key-value documents. Documents are
// loaded on startup and flushed periodically by the underlying datastore;
// a missing or unreadable file starts as an empty store.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/keshon/datastore"

	"caffonia/internal/song"
)

var (
	ErrPlaylistExists   = errors.New("playlist already exists")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrPlaylistFull     = errors.New("playlist is full")
	ErrPlaylistEmpty    = errors.New("playlist is empty")
	ErrSongNotInList    = errors.New("song not in playlist")
)

// Playlist is a named, ordered list of songs owned by one user.
type Playlist struct {
	Name      string      `json:"name"`
	Songs     []song.Song `json:"songs"`
	CreatedAt time.Time   `json:"created_at"`
}

// PlaylistStore keeps per-user named playlists in its own document.
type PlaylistStore struct {
	mu      sync.Mutex
	ds      *datastore.DataStore
	maxSize int
}

func NewPlaylistStore(filePath string, maxSize int) (*PlaylistStore, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("open playlist store: %w", err)
	}
	return &PlaylistStore{ds: ds, maxSize: maxSize}, nil
}

func (s *PlaylistStore) Close() error { return s.ds.Close() }

// Create adds an empty playlist for the user.
func (s *PlaylistStore) Create(userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(userID)
	if err != nil {
		return err
	}
	if _, ok := lists[name]; ok {
		return ErrPlaylistExists
	}

	lists[name] = Playlist{Name: name, Songs: []song.Song{}, CreatedAt: time.Now()}
	s.ds.Add(userID, lists)
	return nil
}

// AddSong appends to a playlist, enforcing the size cap.
func (s *PlaylistStore) AddSong(userID, name string, sng song.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(userID)
	if err != nil {
		return err
	}
	pl, ok := lists[name]
	if !ok {
		return ErrPlaylistNotFound
	}
	if len(pl.Songs) >= s.maxSize {
		return ErrPlaylistFull
	}

	pl.Songs = append(pl.Songs, sng)
	lists[name] = pl
	s.ds.Add(userID, lists)
	return nil
}

// RemoveSong drops the first entry matching sourceURL from a playlist.
func (s *PlaylistStore) RemoveSong(userID, name, sourceURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(userID)
	if err != nil {
		return err
	}
	pl, ok := lists[name]
	if !ok {
		return ErrPlaylistNotFound
	}

	for i, sng := range pl.Songs {
		if sng.SourceURL == sourceURL {
			pl.Songs = append(pl.Songs[:i], pl.Songs[i+1:]...)
			lists[name] = pl
			s.ds.Add(userID, lists)
			return nil
		}
	}
	return ErrSongNotInList
}

// Get returns a copy of one playlist.
func (s *PlaylistStore) Get(userID, name string) (Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(userID)
	if err != nil {
		return Playlist{}, err
	}
	pl, ok := lists[name]
	if !ok {
		return Playlist{}, ErrPlaylistNotFound
	}
	return pl, nil
}

// List returns the user's playlists sorted by name.
func (s *PlaylistStore) List(userID string) ([]Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	out := make([]Playlist, 0, len(lists))
	for _, pl := range lists {
		out = append(out, pl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a playlist.
func (s *PlaylistStore) Delete(userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(userID)
	if err != nil {
		return err
	}
	if _, ok := lists[name]; !ok {
		return ErrPlaylistNotFound
	}

	delete(lists, name)
	s.ds.Add(userID, lists)
	return nil
}

func (s *PlaylistStore) load(userID string) (map[string]Playlist, error) {
	raw, ok := s.ds.Get(userID)
	if !ok {
		return map[string]Playlist{}, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal playlists: %w", err)
	}
	var lists map[string]Playlist
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("unmarshal playlists: %w", err)
	}
	return lists, nil
}
