package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/keshon/datastore"

	"caffonia/internal/song"
)

const recentPlaysLimit = 12

// Stats summarizes one user's listening.
type Stats struct {
	TotalPlayed int         `json:"total_played"`
	Recent      []song.Song `json:"recent"` // most-recent-first, bounded
}

// StatsStore keeps per-user play statistics in its own document.
type StatsStore struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

func NewStatsStore(filePath string) (*StatsStore, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("open stats store: %w", err)
	}
	return &StatsStore{ds: ds}, nil
}

func (s *StatsStore) Close() error { return s.ds.Close() }

// RecordPlay counts one playback for the requesting user.
func (s *StatsStore) RecordPlay(userID string, sng song.Song) error {
	if userID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(userID)
	if err != nil {
		return err
	}

	st.TotalPlayed++
	st.Recent = append([]song.Song{sng}, st.Recent...)
	if len(st.Recent) > recentPlaysLimit {
		st.Recent = st.Recent[:recentPlaysLimit]
	}

	s.ds.Add(userID, st)
	return nil
}

// Get returns the user's stats; ok is false when nothing was recorded yet.
func (s *StatsStore) Get(userID string) (Stats, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ds.Get(userID); !exists {
		return Stats{}, false, nil
	}

	st, err := s.load(userID)
	if err != nil {
		return Stats{}, false, err
	}
	return st, true, nil
}

func (s *StatsStore) load(userID string) (Stats, error) {
	raw, ok := s.ds.Get(userID)
	if !ok {
		return Stats{}, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return Stats{}, fmt.Errorf("marshal stats: %w", err)
	}
	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return Stats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return st, nil
}
