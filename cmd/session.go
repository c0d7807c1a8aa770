package main

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playctl/internal/models"
	"github.com/desertthunder/playctl/internal/server"
	"github.com/desertthunder/playctl/internal/shared"
	"github.com/desertthunder/playctl/internal/ui"
)

// Login runs the authorization code flow: it serves the redirect URI locally, sends the user to
// the consent page and waits for the callback to deliver a code.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(cmd)
	if err != nil {
		return err
	}

	creds := a.Config.Credentials.Spotify
	if err := creds.Validate(); err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port))
	srv := server.NewCallbackServer(addr, server.NewOAuthHandler(a.Store, state, callbackPath(creds.RedirectURI)), r.logger)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Shutdown(context.WithoutCancel(ctx))

	authURL := a.Store.AuthURL(state)
	r.writePlain("Open this URL to authorize playctl:\n%s\n", authURL)
	if !cmd.Bool("no-browser") {
		if err := r.browser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()
	if err := srv.Wait(waitCtx); err != nil {
		return err
	}

	if err := a.Login(ctx); err != nil {
		return err
	}

	name := "Spotify"
	if session, err := a.Sessions.Current(); err == nil && session != nil && session.DisplayName() != "" {
		name = session.DisplayName()
	}
	return r.writePlain("%s\n", ui.Styles.OK("Logged in as "+name))
}

// Logout clears the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(cmd)
	if err != nil {
		return err
	}

	a.Store.Clear()
	return r.writePlain("%s\n", ui.Styles.OK("Logged out"))
}

// Refresh refreshes the access token when it is stale, or always with --force.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(cmd)
	if err != nil {
		return err
	}

	if !a.Store.IsAuthenticated() {
		return fmt.Errorf("%w: run 'playctl login' first", shared.ErrNotAuthenticated)
	}

	before := a.Store.Current().AccessToken
	if _, err := a.Store.RefreshIfNeeded(ctx, cmd.Bool("force")); err != nil {
		return err
	}

	if a.Store.Current().AccessToken == before {
		return r.writePlain("%s\n", ui.Styles.OK("Token is still fresh"))
	}
	return r.writePlain("%s\n", ui.Styles.OK("Token refreshed"))
}

// Status shows who is logged in, the active device and what is playing.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(cmd)
	if err != nil {
		return err
	}

	status := ui.Status{Authenticated: a.Store.IsAuthenticated()}
	if status.Authenticated {
		status.TokenAge = a.Store.Current().Age(time.Now())

		user, err := a.Spotify.Me(ctx)
		if err != nil {
			r.logger.Warn("failed to fetch profile", "error", err)
			if session, _ := a.Sessions.Current(); session != nil {
				user = models.User{ID: session.UserID(), DisplayName: session.DisplayName()}
			}
		}
		status.User = user

		remote, err := a.Spotify.PlayerState(ctx)
		if err != nil {
			r.logger.Warn("failed to fetch player state", "error", err)
			status.Playback = a.Controller.State()
		} else {
			status.Playback = remote.State
			if remote.HasDevice {
				status.Device = &remote.Device
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}
	ui.RenderStatus(r.output, status)
	return nil
}

// Devices lists the Spotify Connect devices, marking the configured one.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(cmd)
	if err != nil {
		return err
	}

	if !a.Store.IsAuthenticated() {
		return fmt.Errorf("%w: run 'playctl login' first", shared.ErrNotAuthenticated)
	}

	devices, err := a.Spotify.Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}
	ui.RenderDevices(r.output, devices, a.Config.Player.DeviceName)
	return nil
}

// callbackPath is the path of the redirect URI, which the callback server must serve.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}
