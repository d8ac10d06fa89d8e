// Package song defines the immutable playable-item value passed between
// the resolver, the playback sessions and the side systems.
package song

import (
	"fmt"
	"time"
)

// Kind identifies which provider a song came from.
type Kind string

const (
	KindVideo   Kind = "video"
	KindCatalog Kind = "catalog"
)

// Song describes one playable item. Songs are copied by value everywhere;
// a playlist entry and a queued copy never share state. The source URL is
// only validated when playback actually starts.
type Song struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	SourceURL     string `json:"source_url"`
	DurationLabel string `json:"duration_label"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	SourceKind    Kind   `json:"source_kind"`
	RequestedBy   string `json:"requested_by"`

	// ContinuousStream marks 24/7 radio entries that replay forever
	// under loop=song.
	ContinuousStream bool `json:"continuous_stream,omitempty"`
}

// WithRequester returns a copy attributed to the given user.
func (s Song) WithRequester(userID string) Song {
	s.RequestedBy = userID
	return s
}

// FormatDuration renders a duration as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
