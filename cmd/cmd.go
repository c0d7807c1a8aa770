// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authorize playctl with your Spotify account",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 5 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL without opening a browser",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the session, active device and current track",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

func refreshCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Refresh the access token",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Refresh even when the token is still fresh",
			},
		},
		Action: r.Refresh,
	}
}

func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List Spotify Connect devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Devices,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start playback on the configured device",
		Commands: []*cli.Command{
			{
				Name:      "track",
				Usage:     "Play a track by URI, URL or ID; - reads the reference from stdin",
				ArgsUsage: "<ref>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "ref"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Treat the reference as a JSON track object, saved track or string",
					},
				},
				Action: r.PlayTrack,
			},
			{
				Name:      "playlist",
				Usage:     "Play a playlist by URI, URL or ID",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Zero-based position of the first track",
					},
				},
				Action: r.PlayPlaylist,
			},
		},
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback",
		Action: r.Pause,
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "resume",
		Usage:  "Resume playback",
		Action: r.Resume,
	}
}

func toggleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "toggle",
		Usage:  "Toggle between play and pause",
		Action: r.Toggle,
	}
}

func seekCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "seek",
		Usage:     "Seek to a position in milliseconds",
		ArgsUsage: "<ms>",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "position", Value: -1},
		},
		Action: r.Seek,
	}
}

func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "volume",
		Usage:     "Set the volume from 0 to 100",
		ArgsUsage: "<0-100>",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "percent", Value: -1},
		},
		Action: r.Volume,
	}
}

func nextCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "next",
		Usage:  "Skip to the next track",
		Action: r.Next,
	}
}

func prevCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "prev",
		Aliases: []string{"previous"},
		Usage:   "Skip to the previous track",
		Action:  r.Previous,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize local state",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if missing, then initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the newest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write Spotify credentials and the device name to the config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "client-id",
						Usage: "Spotify application client ID",
					},
					&cli.StringFlag{
						Name:  "client-secret",
						Usage: "Spotify application client secret",
					},
					&cli.StringFlag{
						Name:  "redirect-uri",
						Usage: "OAuth redirect URI registered for the application",
					},
					&cli.StringFlag{
						Name:  "device",
						Usage: "Name or ID of the Spotify Connect device to drive",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}
