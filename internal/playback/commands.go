package playback

import (
	"context"
	"fmt"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/shared"
)

// Pause pauses the connected player.
func (c *Controller) Pause(ctx context.Context) error {
	return c.command(ctx, "pause", Handle.Pause, func(s *models.PlaybackState) { s.IsPlaying = false })
}

// Resume resumes the connected player.
func (c *Controller) Resume(ctx context.Context) error {
	return c.command(ctx, "resume", Handle.Resume, func(s *models.PlaybackState) { s.IsPlaying = true })
}

// TogglePlay pauses when playing and resumes otherwise.
func (c *Controller) TogglePlay(ctx context.Context) error {
	if c.State().IsPlaying {
		return c.Pause(ctx)
	}
	return c.Resume(ctx)
}

// Seek moves the playhead to positionMS.
func (c *Controller) Seek(ctx context.Context, positionMS int) error {
	if positionMS < 0 {
		return fmt.Errorf("%w: position %d", shared.ErrInvalidArgument, positionMS)
	}
	return c.command(ctx, "seek",
		func(h Handle, ctx context.Context) error { return h.Seek(ctx, positionMS) },
		func(s *models.PlaybackState) { s.PositionMS = positionMS })
}

// SetVolume sets the volume, from 0 to 1.
func (c *Controller) SetVolume(ctx context.Context, volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("%w: volume %.2f not in [0, 1]", shared.ErrInvalidArgument, volume)
	}
	return c.command(ctx, "set volume",
		func(h Handle, ctx context.Context) error { return h.SetVolume(ctx, volume) },
		func(s *models.PlaybackState) { s.Volume = volume })
}

// NextTrack skips forward.
func (c *Controller) NextTrack(ctx context.Context) error {
	return c.command(ctx, "next track", Handle.NextTrack, nil)
}

// PreviousTrack skips back.
func (c *Controller) PreviousTrack(ctx context.Context) error {
	return c.command(ctx, "previous track", Handle.PreviousTrack, nil)
}

// UpdateFromPlayerState applies a state notification from the player. The track, volume,
// user-visible error and playlist are kept unless the update carries them.
func (c *Controller) UpdateFromPlayerState(update models.PlaybackState) {
	c.update(func(s *models.PlaybackState) {
		if update.CurrentTrack != nil {
			s.CurrentTrack = update.CurrentTrack
		}
		s.IsPlaying = update.IsPlaying
		s.PositionMS = update.PositionMS
		s.DurationMS = update.DurationMS
		if update.HasVolume {
			s.Volume = update.Volume
		}
		if update.CurrentPlaylist != "" {
			s.CurrentPlaylist = update.CurrentPlaylist
		}
		if update.Error != "" {
			s.Error = update.Error
		}
	})
}

// SetError records a user-visible error reported outside of a command, e.g. by the player.
func (c *Controller) SetError(msg string) {
	c.update(func(s *models.PlaybackState) { s.Error = msg })
}

func (c *Controller) command(ctx context.Context, name string, call func(Handle, context.Context) error, apply func(*models.PlaybackState)) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()

	if h == nil || !c.registrar.Device().Ready {
		c.logger.Warn("player not ready", "command", name)
		return fmt.Errorf("%s: %w", name, shared.ErrPlayerNotReady)
	}

	if err := call(h, ctx); err != nil {
		return c.fail(fmt.Errorf("%s: %w", name, classify(err)))
	}

	if apply != nil {
		c.update(apply)
	}
	return nil
}
