package models

import "testing"

func TestDecodeTrackInput(t *testing.T) {
	t.Run("string becomes a link", func(t *testing.T) {
		in, err := DecodeTrackInput([]byte(`"https://open.spotify.com/track/abc123"`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		link, ok := in.(TrackLink)
		if !ok {
			t.Fatalf("expected TrackLink, got %T", in)
		}
		if link != "https://open.spotify.com/track/abc123" {
			t.Errorf("unexpected link %q", link)
		}
	})

	t.Run("object with track member becomes a saved track", func(t *testing.T) {
		in, err := DecodeTrackInput([]byte(`{"added_at":"2024-01-01","track":{"id":"xyz","name":"Song"}}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		saved, ok := in.(SavedTrack)
		if !ok {
			t.Fatalf("expected SavedTrack, got %T", in)
		}
		if saved.Track.ID != "xyz" || saved.Track.Name != "Song" {
			t.Errorf("unexpected nested track %+v", saved.Track)
		}
	})

	t.Run("plain object becomes a track object", func(t *testing.T) {
		in, err := DecodeTrackInput([]byte(`{"uri":"spotify:track:1","external_urls":{"spotify":"https://open.spotify.com/track/1"}}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		track, ok := in.(TrackObject)
		if !ok {
			t.Fatalf("expected TrackObject, got %T", in)
		}
		if track.URI != "spotify:track:1" {
			t.Errorf("unexpected uri %q", track.URI)
		}
		if track.SpotifyURL() != "https://open.spotify.com/track/1" {
			t.Errorf("unexpected spotify url %q", track.SpotifyURL())
		}
	})

	t.Run("rejects empty and malformed input", func(t *testing.T) {
		for _, data := range []string{"", "   ", "{", "42"} {
			if _, err := DecodeTrackInput([]byte(data)); err == nil {
				t.Errorf("expected error for %q", data)
			}
		}
	})
}

func TestSessionValidate(t *testing.T) {
	s := NewSession(Token{AccessToken: "access"})
	if err := s.Validate(); err == nil {
		t.Error("expected error without id")
	}

	s.SetID("id")
	if err := s.Validate(); err != nil {
		t.Errorf("expected valid session, got %v", err)
	}

	s.SetToken(Token{})
	if err := s.Validate(); err == nil {
		t.Error("expected error without access token")
	}
}
