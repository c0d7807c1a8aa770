package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/playctl/internal/shared"
	"github.com/desertthunder/playctl/internal/ui"
)

// SetupDatabase creates the config file when it is missing, then initializes the database and runs
// migrations. With --rollback it rolls back the newest migration instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		if _, err := os.Stat(configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", configPath)
			if err := shared.CreateConfigFile(configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", configPath)
			}
		}

		loaded, err := r.loadConfig(cmd)
		if err != nil {
			return err
		}
		config = loaded
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back the newest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		return r.writePlain("%s\n", ui.Styles.OK("Rolled back the newest migration at "+config.Database.Path))
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Database ready at %s (schema v%d)", config.Database.Path, version)))
}

// SetupConfig writes the given credentials and device name to the config file named by --config,
// keeping every other setting. Environment overrides are not written back.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := shared.LoadConfigOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	for flag, dst := range map[string]*string{
		"client-id":     &config.Credentials.Spotify.ClientID,
		"client-secret": &config.Credentials.Spotify.ClientSecret,
		"redirect-uri":  &config.Credentials.Spotify.RedirectURI,
		"device":        &config.Player.DeviceName,
	} {
		if v := cmd.String(flag); v != "" {
			*dst = v
		}
	}

	if err := config.Credentials.Spotify.Validate(); err != nil {
		return err
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}

	r.logger.Info("config saved", "path", configPath)
	return r.writePlain("%s\n", ui.Styles.OK("Saved credentials to "+configPath))
}
