package playback

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

const (
	trackURIPrefix    = "spotify:track:"
	playlistURIPrefix = "spotify:playlist:"
)

var (
	// idPattern validates IDs taken from links; an ID field is used as given.
	idPattern       = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	webTrackPattern = regexp.MustCompile(`/track/([a-zA-Z0-9]+)`)
	hrefPattern     = regexp.MustCompile(`/tracks/([a-zA-Z0-9]+)`)
	playlistPattern = regexp.MustCompile(`/playlist/([a-zA-Z0-9]+)`)
)

// Resolve derives the canonical track URI from in, along with whatever display data it carries.
//
// Candidates are tried in order: an explicit URI, an ID, an ID parsed from the web player link
// (".../track/<id>"), then one parsed from the API href (".../tracks/<id>"). When none yields a
// URI the error wraps [shared.ErrUnresolvable].
func Resolve(in models.TrackInput) (string, *models.TrackInfo, error) {
	var track models.TrackObject

	switch v := in.(type) {
	case models.TrackObject:
		track = v
	case *models.TrackObject:
		if v != nil {
			track = *v
		}
	case models.SavedTrack:
		track = v.Track
	case *models.SavedTrack:
		if v != nil {
			track = v.Track
		}
	case models.TrackLink:
		return resolveLink(string(v))
	}

	uri := trackURI(track)
	if uri == "" {
		return "", nil, unresolvable(in)
	}

	info := &models.TrackInfo{
		ID:    track.ID,
		Name:  track.Name,
		URI:   uri,
		Album: track.Album.Name,
	}
	if info.ID == "" {
		info.ID = strings.TrimPrefix(uri, trackURIPrefix)
	}
	for _, a := range track.Artists {
		info.Artists = append(info.Artists, a.Name)
	}
	if len(track.Album.Images) > 0 {
		info.ImageURL = track.Album.Images[0].URL
	}

	return uri, info, nil
}

func trackURI(t models.TrackObject) string {
	if t.URI != "" {
		return t.URI
	}
	if t.ID != "" {
		return trackURIPrefix + t.ID
	}
	if m := webTrackPattern.FindStringSubmatch(t.SpotifyURL()); m != nil {
		return trackURIPrefix + m[1]
	}
	if m := hrefPattern.FindStringSubmatch(t.Href); m != nil {
		return trackURIPrefix + m[1]
	}
	return ""
}

// resolveLink accepts a URI, web URL, API href or bare ID.
func resolveLink(link string) (string, *models.TrackInfo, error) {
	link = strings.TrimSpace(link)

	var id string
	switch {
	case strings.HasPrefix(link, trackURIPrefix):
		id = strings.TrimPrefix(link, trackURIPrefix)
	case webTrackPattern.MatchString(link):
		id = webTrackPattern.FindStringSubmatch(link)[1]
	case hrefPattern.MatchString(link):
		id = hrefPattern.FindStringSubmatch(link)[1]
	default:
		id = link
	}

	if !idPattern.MatchString(id) {
		return "", nil, unresolvable(models.TrackLink(link))
	}

	uri := trackURIPrefix + id
	return uri, &models.TrackInfo{ID: id, URI: uri}, nil
}

// ResolvePlaylist accepts a playlist ID, URI or web URL and returns the bare ID.
func ResolvePlaylist(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	id := ref
	switch {
	case strings.HasPrefix(ref, playlistURIPrefix):
		id = strings.TrimPrefix(ref, playlistURIPrefix)
	case playlistPattern.MatchString(ref):
		id = playlistPattern.FindStringSubmatch(ref)[1]
	}

	if !idPattern.MatchString(id) {
		return "", &Error{Kind: KindResolution, Err: fmt.Errorf("playlist %q", ref)}
	}
	return id, nil
}

func unresolvable(in models.TrackInput) error {
	return &Error{Kind: KindResolution, Err: fmt.Errorf("%w: %#v", shared.ErrInvalidArgument, in)}
}
