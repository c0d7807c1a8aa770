package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playctl/internal/app"
	"github.com/desertthunder/playctl/internal/player"
	"github.com/desertthunder/playctl/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	output    io.Writer
	input     io.Reader
	transport http.RoundTripper
	factory   player.Factory
	browser   func(url string) error
	app       *app.App
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config    *shared.Config // when nil, loaded from --config on first use
	Logger    *log.Logger
	Output    io.Writer
	Input     io.Reader // read by "play track -"; defaults to os.Stdin
	Transport http.RoundTripper
	Factory   player.Factory
	Browser   func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		output:    opts.Output,
		input:     opts.Input,
		transport: opts.Transport,
		factory:   opts.Factory,
		browser:   opts.Browser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		loginCommand, logoutCommand, statusCommand, refreshCommand, devicesCommand,
		playCommand, pauseCommand, resumeCommand, toggleCommand, seekCommand, volumeCommand,
		nextCommand, prevCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the injected config or reads the one named by --config, then applies .env
// and environment overrides.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	shared.ApplyEnv(config, ".env")

	r.logger.Debug("loaded config", "path", path)
	r.config = config
	return config, nil
}

// open builds the application on first use.
func (r *Runner) open(cmd *cli.Command) (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	a, err := app.New(app.Options{
		Config:    config,
		Logger:    r.logger,
		Transport: r.transport,
		Factory:   r.factory,
	})
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

// connect opens the application and waits for the playback device.
func (r *Runner) connect(ctx context.Context, cmd *cli.Command) (*app.App, error) {
	a, err := r.open(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the application, if one was opened.
func (r *Runner) Close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
