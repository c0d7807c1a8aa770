package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/playback"
	"github.com/desertthunder/playctl/internal/shared"
	"github.com/desertthunder/playctl/internal/ui"
)

// PlayTrack plays one track on the configured device.
func (r *Runner) PlayTrack(ctx context.Context, cmd *cli.Command) error {
	in, err := r.trackInput(cmd)
	if err != nil {
		return err
	}

	return r.play(ctx, cmd, func(ctx context.Context, c *playback.Controller) error {
		return c.PlayTrack(ctx, in)
	})
}

// trackInput reads the track reference from the argument, or from input when it is "-". With
// --json the reference is decoded as a track object, saved track or JSON string.
func (r *Runner) trackInput(cmd *cli.Command) (models.TrackInput, error) {
	ref := cmd.StringArg("ref")
	if ref == "" {
		return nil, fmt.Errorf("%w: track reference is required", shared.ErrMissingArgument)
	}

	data := []byte(ref)
	if ref == "-" {
		read, err := io.ReadAll(r.input)
		if err != nil {
			return nil, fmt.Errorf("failed to read track from stdin: %w", err)
		}
		data = read
	}

	if cmd.Bool("json") {
		in, err := models.DecodeTrackInput(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		return in, nil
	}

	link := strings.TrimSpace(string(data))
	if link == "" {
		return nil, fmt.Errorf("%w: track reference is required", shared.ErrMissingArgument)
	}
	return models.TrackLink(link), nil
}

// PlayPlaylist plays a playlist from --index on the configured device.
func (r *Runner) PlayPlaylist(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	return r.play(ctx, cmd, func(ctx context.Context, c *playback.Controller) error {
		return c.PlayPlaylist(ctx, id, int(cmd.Int("index")))
	})
}

// Pause pauses playback.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, cmd, "Paused", func(ctx context.Context, c *playback.Controller) error {
		return c.Pause(ctx)
	})
}

// Resume resumes playback.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, cmd, "Resumed", func(ctx context.Context, c *playback.Controller) error {
		return c.Resume(ctx)
	})
}

// Toggle flips between playing and paused.
func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	a, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	// a fresh process only knows the persisted state, which is restored as paused
	if remote, err := a.Spotify.PlayerState(ctx); err != nil {
		r.logger.Warn("failed to fetch player state", "error", err)
	} else {
		a.Controller.UpdateFromPlayerState(remote.State)
	}

	if err := a.Controller.TogglePlay(ctx); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.NowPlaying(a.Controller.State()))
}

// Seek moves the playhead.
func (r *Runner) Seek(ctx context.Context, cmd *cli.Command) error {
	position := int(cmd.IntArg("position"))
	if position < 0 {
		return fmt.Errorf("%w: position in milliseconds is required", shared.ErrMissingArgument)
	}

	return r.control(ctx, cmd, fmt.Sprintf("Seeked to %dms", position), func(ctx context.Context, c *playback.Controller) error {
		return c.Seek(ctx, position)
	})
}

// Volume sets the device volume from a percentage.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	percent := int(cmd.IntArg("percent"))
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%w: volume must be between 0 and 100", shared.ErrInvalidArgument)
	}

	return r.control(ctx, cmd, fmt.Sprintf("Volume %d%%", percent), func(ctx context.Context, c *playback.Controller) error {
		return c.SetVolume(ctx, float64(percent)/100)
	})
}

// Next skips forward.
func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, cmd, "Skipped to next track", func(ctx context.Context, c *playback.Controller) error {
		return c.NextTrack(ctx)
	})
}

// Previous skips back.
func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, cmd, "Skipped to previous track", func(ctx context.Context, c *playback.Controller) error {
		return c.PreviousTrack(ctx)
	})
}

// play runs fn against a connected controller and prints the resulting track.
func (r *Runner) play(ctx context.Context, cmd *cli.Command, fn func(context.Context, *playback.Controller) error) error {
	a, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	if err := fn(ctx, a.Controller); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.NowPlaying(a.Controller.State()))
}

// control runs fn against a connected controller and prints done on success.
func (r *Runner) control(ctx context.Context, cmd *cli.Command, done string, fn func(context.Context, *playback.Controller) error) error {
	a, err := r.connect(ctx, cmd)
	if err != nil {
		return err
	}

	if err := fn(ctx, a.Controller); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK(done))
}
