package models

// PlaybackKind distinguishes what a [PlaybackRequest] plays.
type PlaybackKind int

const (
	KindTrack PlaybackKind = iota
	KindPlaylist
)

// String returns the kind name.
func (k PlaybackKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// PlaybackRequest is one play intent. RetryCount is bounded by the controller.
type PlaybackRequest struct {
	Kind       PlaybackKind
	Track      TrackInput // set for KindTrack
	PlaylistID string     // set for KindPlaylist
	StartIndex int
	RetryCount int
}

// TrackInfo is the normalized description of the current track.
type TrackInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	URI      string   `json:"uri"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

// PlaybackState is the local view of what is playing.
type PlaybackState struct {
	CurrentTrack    *TrackInfo `json:"current_track,omitempty"`
	IsPlaying       bool       `json:"is_playing"`
	PositionMS      int        `json:"position_ms"`
	DurationMS      int        `json:"duration_ms"`
	CurrentPlaylist string     `json:"current_playlist,omitempty"`
	PlaylistIndex   int        `json:"playlist_index"`
	Volume          float64    `json:"volume"`
	Error           string     `json:"error,omitempty"`

	// HasVolume marks Volume as reported by the device, so that 0 means muted rather than
	// unknown. Only meaningful on updates from the player.
	HasVolume bool `json:"-"`
}
