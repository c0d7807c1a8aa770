// Spotify Web API implementation backed by [spotify.Client]
//
// Endpoint reference: https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

// RemoteState is the player state reported by the Web API.
type RemoteState struct {
	Device    models.RemoteDevice
	HasDevice bool // false when no device is active
	State     models.PlaybackState
}

// SpotifyService issues the Web API calls used for device registration and playback.
type SpotifyService struct {
	client *spotify.Client
	logger *log.Logger
}

// NewSpotifyService creates a service that sends requests through httpClient, which is expected
// to authorize them (see [NewHTTPClient]). An empty baseURL means the public API.
func NewSpotifyService(httpClient *http.Client, baseURL string, logger *log.Logger) *SpotifyService {
	var opts []spotify.ClientOption
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}

	return &SpotifyService{
		client: spotify.New(httpClient, opts...),
		logger: shared.WithLogger(logger, "component", "spotify"),
	}
}

// Me retrieves the current user's profile.
func (s *SpotifyService) Me(ctx context.Context) (models.User, error) {
	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return models.User{}, wrap("get profile", err)
	}

	return models.User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Product:     u.Product,
	}, nil
}

// Devices lists the account's Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.RemoteDevice, error) {
	devices, err := s.client.PlayerDevices(ctx)
	if err != nil {
		return nil, wrap("list devices", err)
	}

	out := make([]models.RemoteDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, remoteDevice(d))
	}
	return out, nil
}

// Transfer moves playback to deviceID, starting it only when play is set.
func (s *SpotifyService) Transfer(ctx context.Context, deviceID string, play bool) error {
	if err := s.client.TransferPlayback(ctx, spotify.ID(deviceID), play); err != nil {
		return wrap("transfer playback", err)
	}
	s.logger.Debug("transferred playback", "device", deviceID, "play", play)
	return nil
}

// PlayURIs starts the given track URIs on deviceID.
func (s *SpotifyService) PlayURIs(ctx context.Context, deviceID string, uris ...string) error {
	opts := playOptions(deviceID)
	for _, uri := range uris {
		opts.URIs = append(opts.URIs, spotify.URI(uri))
	}

	if err := s.client.PlayOpt(ctx, opts); err != nil {
		return wrap("start playback", err)
	}
	return nil
}

// PlayContext starts a context (playlist, album) on deviceID at the zero-based position.
func (s *SpotifyService) PlayContext(ctx context.Context, deviceID, contextURI string, position int) error {
	uri := spotify.URI(contextURI)
	opts := playOptions(deviceID)
	opts.PlaybackContext = &uri
	opts.PlaybackOffset = &spotify.PlaybackOffset{Position: &position}

	if err := s.client.PlayOpt(ctx, opts); err != nil {
		return wrap("start playback", err)
	}
	return nil
}

// Resume continues whatever is loaded on deviceID.
func (s *SpotifyService) Resume(ctx context.Context, deviceID string) error {
	if err := s.client.PlayOpt(ctx, playOptions(deviceID)); err != nil {
		return wrap("resume playback", err)
	}
	return nil
}

// Pause pauses playback on deviceID.
func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	if err := s.client.PauseOpt(ctx, playOptions(deviceID)); err != nil {
		return wrap("pause playback", err)
	}
	return nil
}

// Seek moves the playhead to positionMS.
func (s *SpotifyService) Seek(ctx context.Context, deviceID string, positionMS int) error {
	if err := s.client.SeekOpt(ctx, positionMS, playOptions(deviceID)); err != nil {
		return wrap("seek", err)
	}
	return nil
}

// Volume sets the device volume in percent (0-100).
func (s *SpotifyService) Volume(ctx context.Context, deviceID string, percent int) error {
	if err := s.client.VolumeOpt(ctx, percent, playOptions(deviceID)); err != nil {
		return wrap("set volume", err)
	}
	return nil
}

// Next skips to the next track.
func (s *SpotifyService) Next(ctx context.Context, deviceID string) error {
	if err := s.client.NextOpt(ctx, playOptions(deviceID)); err != nil {
		return wrap("skip to next", err)
	}
	return nil
}

// Previous skips to the previous track.
func (s *SpotifyService) Previous(ctx context.Context, deviceID string) error {
	if err := s.client.PreviousOpt(ctx, playOptions(deviceID)); err != nil {
		return wrap("skip to previous", err)
	}
	return nil
}

// PlayerState fetches what is playing and where.
func (s *SpotifyService) PlayerState(ctx context.Context) (RemoteState, error) {
	ps, err := s.client.PlayerState(ctx)
	if err != nil {
		return RemoteState{}, wrap("get player state", err)
	}

	var out RemoteState
	if ps == nil {
		return out, nil
	}

	if ps.Device.ID != "" {
		out.HasDevice = true
		out.Device = remoteDevice(ps.Device)
		out.State.Volume = float64(out.Device.Volume) / 100
		out.State.HasVolume = true
	}

	out.State.IsPlaying = ps.Playing
	out.State.PositionMS = int(ps.Progress)

	if item := ps.Item; item != nil {
		track := &models.TrackInfo{
			ID:    string(item.ID),
			Name:  item.Name,
			URI:   string(item.URI),
			Album: item.Album.Name,
		}
		for _, a := range item.Artists {
			track.Artists = append(track.Artists, a.Name)
		}
		if len(item.Album.Images) > 0 {
			track.ImageURL = item.Album.Images[0].URL
		}
		out.State.CurrentTrack = track
		out.State.DurationMS = int(item.Duration)
	}

	if ps.PlaybackContext.Type == "playlist" {
		uri := string(ps.PlaybackContext.URI)
		out.State.CurrentPlaylist = uri[strings.LastIndex(uri, ":")+1:]
	}

	return out, nil
}

// StatusCode extracts the HTTP status from a Web API error, or 0 when the error carries none.
func StatusCode(err error) int {
	var se spotify.Error
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func playOptions(deviceID string) *spotify.PlayOptions {
	opts := &spotify.PlayOptions{}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}
	return opts
}

func remoteDevice(d spotify.PlayerDevice) models.RemoteDevice {
	return models.RemoteDevice{
		ID:         string(d.ID),
		Name:       d.Name,
		Type:       d.Type,
		Active:     d.Active,
		Restricted: d.Restricted,
		Volume:     int(d.Volume),
	}
}

func wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
}
