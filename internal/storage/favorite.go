package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/keshon/datastore"

	"caffonia/internal/song"
)

var (
	ErrAlreadyFavorite = errors.New("song already in favorites")
	ErrFavoriteMissing = errors.New("song not in favorites")
)

// FavoriteStore keeps per-user favorite songs in its own document.
// Songs are identified by source URL.
type FavoriteStore struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

func NewFavoriteStore(filePath string) (*FavoriteStore, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("open favorite store: %w", err)
	}
	return &FavoriteStore{ds: ds}, nil
}

func (s *FavoriteStore) Close() error { return s.ds.Close() }

// Add stores a favorite, rejecting duplicates.
func (s *FavoriteStore) Add(userID string, sng song.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load(userID)
	if err != nil {
		return err
	}
	for _, f := range favs {
		if f.SourceURL == sng.SourceURL {
			return ErrAlreadyFavorite
		}
	}

	s.ds.Add(userID, append(favs, sng))
	return nil
}

// Remove deletes a favorite by source URL.
func (s *FavoriteStore) Remove(userID, sourceURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.load(userID)
	if err != nil {
		return err
	}
	for i, f := range favs {
		if f.SourceURL == sourceURL {
			s.ds.Add(userID, append(favs[:i], favs[i+1:]...))
			return nil
		}
	}
	return ErrFavoriteMissing
}

// List returns the user's favorites in insertion order.
func (s *FavoriteStore) List(userID string) ([]song.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

func (s *FavoriteStore) load(userID string) ([]song.Song, error) {
	raw, ok := s.ds.Get(userID)
	if !ok {
		return []song.Song{}, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal favorites: %w", err)
	}
	var favs []song.Song
	if err := json.Unmarshal(data, &favs); err != nil {
		return nil, fmt.Errorf("unmarshal favorites: %w", err)
	}
	return favs, nil
}
