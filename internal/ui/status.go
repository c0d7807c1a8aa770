package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/playctl/internal/models"
)

// Status is what the status command shows.
type Status struct {
	Authenticated bool
	User          models.User
	TokenAge      time.Duration
	Device        *models.RemoteDevice // nil when no device is active
	Playback      models.PlaybackState
}

// RenderStatus writes s as a few styled lines.
func RenderStatus(w io.Writer, s Status) {
	fmt.Fprintln(w, Styles.Title("playctl"))

	if !s.Authenticated {
		fmt.Fprintln(w, Styles.Err("Not logged in"))
		fmt.Fprintln(w, Styles.Help("Run 'playctl login' to connect your Spotify account."))
		return
	}

	who := s.User.DisplayName
	if who == "" {
		who = s.User.ID
	}
	fmt.Fprintln(w, Styles.OK(fmt.Sprintf("Logged in as %s (%s)", who, s.User.Product)))
	fmt.Fprintf(w, "Token age: %s\n", s.TokenAge.Round(time.Second))

	if s.Device == nil {
		fmt.Fprintln(w, Styles.Warn("No active device"))
	} else {
		fmt.Fprintf(w, "Device: %s (%s, %d%%)\n", s.Device.Name, s.Device.Type, s.Device.Volume)
	}

	fmt.Fprintln(w, NowPlaying(s.Playback))
	if s.Playback.Error != "" {
		fmt.Fprintln(w, Styles.Err(s.Playback.Error))
	}
}

// NowPlaying describes the current track in one line.
func NowPlaying(state models.PlaybackState) string {
	track := state.CurrentTrack
	if track == nil {
		return Styles.Help("Nothing playing")
	}

	icon := "⏸"
	if state.IsPlaying {
		icon = "▶"
	}

	line := fmt.Sprintf("%s %s", icon, track.Name)
	if len(track.Artists) > 0 {
		line += " · " + strings.Join(track.Artists, ", ")
	}
	if state.DurationMS > 0 {
		line += fmt.Sprintf(" [%s / %s]", clock(state.PositionMS), clock(state.DurationMS))
	}
	return line
}

func clock(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
