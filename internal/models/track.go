package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TrackInput is a track-like value handed to playback. It is one of [TrackObject], [SavedTrack]
// or [TrackLink].
type TrackInput interface {
	trackInput()
}

// Artist is the subset of an artist object kept for display.
type Artist struct {
	Name string `json:"name"`
}

// Image is an artwork reference.
type Image struct {
	URL string `json:"url"`
}

// Album is the subset of an album object kept for display.
type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// TrackObject is a track as returned by the Web API, or any partial copy of one.
type TrackObject struct {
	URI          string            `json:"uri,omitempty"`
	ID           string            `json:"id,omitempty"`
	Href         string            `json:"href,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	Name         string            `json:"name,omitempty"`
	Artists      []Artist          `json:"artists,omitempty"`
	Album        Album             `json:"album,omitempty"`
	DurationMS   int               `json:"duration_ms,omitempty"`
}

// SavedTrack wraps a track under a "track" field, as playlist items and library entries do.
type SavedTrack struct {
	AddedAt string      `json:"added_at,omitempty"`
	Track   TrackObject `json:"track"`
}

// TrackLink is a bare reference string: a URI, a web URL or an API href.
type TrackLink string

func (TrackObject) trackInput() {}
func (SavedTrack) trackInput() {}
func (TrackLink) trackInput() {}

// SpotifyURL returns the web player link, if any.
func (t TrackObject) SpotifyURL() string {
	return t.ExternalURLs["spotify"]
}

// DecodeTrackInput decodes JSON into the matching [TrackInput] variant: a JSON string becomes a
// [TrackLink], an object with a "track" member a [SavedTrack], any other object a [TrackObject].
func DecodeTrackInput(data []byte) (TrackInput, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty track input")
	}

	if data[0] == '"' {
		var link string
		if err := json.Unmarshal(data, &link); err != nil {
			return nil, fmt.Errorf("failed to decode track link: %w", err)
		}
		return TrackLink(link), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode track input: %w", err)
	}

	if raw, ok := fields["track"]; ok && len(raw) > 0 && raw[0] == '{' {
		var saved SavedTrack
		if err := json.Unmarshal(data, &saved); err != nil {
			return nil, fmt.Errorf("failed to decode saved track: %w", err)
		}
		return saved, nil
	}

	var track TrackObject
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	return track, nil
}
