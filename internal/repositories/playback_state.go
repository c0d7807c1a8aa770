package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/playctl/internal/models"
)

// artistSeparator joins artist names in the artists column.
const artistSeparator = "\x1f"

// PlaybackStateRepository persists the last known [models.PlaybackState] as a single row.
type PlaybackStateRepository struct {
	db *sql.DB
}

// NewPlaybackStateRepository creates a new [PlaybackStateRepository] with the given database connection
func NewPlaybackStateRepository(db *sql.DB) *PlaybackStateRepository {
	return &PlaybackStateRepository{db: db}
}

// SaveState upserts state. The transient Error field is not stored.
func (r *PlaybackStateRepository) SaveState(state models.PlaybackState) error {
	var track models.TrackInfo
	if state.CurrentTrack != nil {
		track = *state.CurrentTrack
	}

	query := `
		INSERT INTO playback_state (id, track_id, track_uri, track_name, artists, image_url, playlist_id,
			playlist_index, is_playing, position_ms, duration_ms, volume, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			track_id = excluded.track_id,
			track_uri = excluded.track_uri,
			track_name = excluded.track_name,
			artists = excluded.artists,
			image_url = excluded.image_url,
			playlist_id = excluded.playlist_id,
			playlist_index = excluded.playlist_index,
			is_playing = excluded.is_playing,
			position_ms = excluded.position_ms,
			duration_ms = excluded.duration_ms,
			volume = excluded.volume,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, track.ID, track.URI, track.Name, strings.Join(track.Artists, artistSeparator),
		track.ImageURL, state.CurrentPlaylist, state.PlaylistIndex, state.IsPlaying, state.PositionMS,
		state.DurationMS, state.Volume, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save playback state: %w", err)
	}
	return nil
}

// LoadState returns the stored state. ok is false when nothing has been saved yet.
func (r *PlaybackStateRepository) LoadState() (state models.PlaybackState, ok bool, err error) {
	query := `
		SELECT track_id, track_uri, track_name, artists, image_url, playlist_id, playlist_index,
			is_playing, position_ms, duration_ms, volume
		FROM playback_state
		WHERE id = 1
	`

	var track models.TrackInfo
	var artists string

	err = r.db.QueryRow(query).Scan(&track.ID, &track.URI, &track.Name, &artists, &track.ImageURL,
		&state.CurrentPlaylist, &state.PlaylistIndex, &state.IsPlaying, &state.PositionMS,
		&state.DurationMS, &state.Volume)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PlaybackState{}, false, nil
	}
	if err != nil {
		return models.PlaybackState{}, false, fmt.Errorf("failed to load playback state: %w", err)
	}

	if track.ID != "" || track.URI != "" {
		if artists != "" {
			track.Artists = strings.Split(artists, artistSeparator)
		}
		state.CurrentTrack = &track
	}

	return state, true, nil
}
