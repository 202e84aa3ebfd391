// Command server runs the direct-messaging backend: the REST API, the
// realtime websocket endpoint, and maintenance subcommands.
//
//	server serve     # HTTP + websocket
//	server migrate   # create/upgrade tables and exit
//	server token     # sign a development bearer token
//
// @title                      Direct Messaging API
// @version                    1.0
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tbourn/go-dm-backend/internal/config"
	"github.com/tbourn/go-dm-backend/internal/sysutil"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}
	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

// Flags are shared by every subcommand.
type Flags struct {
	EnvFile   string
	LogLevel  string
	LogPretty bool
}

// loadConfig reads the environment (after the Before hook applied the env
// file) and applies the configured log level.
func (f *Flags) loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	sysutil.SetupLogger(sysutil.FirstNonEmpty(f.LogLevel, cfg.LogLevel), f.LogPretty || cfg.LogPretty, os.Stderr)
	return cfg, nil
}

func main() {
	sysutil.SetupLogger("info", false, os.Stderr)

	if err := newApp(&Flags{}).Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}

func newApp(flags *Flags) *cli.Command {
	app := &cli.Command{
		Name:      "server",
		Usage:     "Real-time direct messaging backend",
		UsageText: "server [global options] command [command options]",
		Version:   build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "dotenv file loaded before reading configuration (missing file is ignored)",
				Value:       ".env",
				Sources:     cli.EnvVars("DM_ENV_FILE"),
				Destination: &flags.EnvFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level override (debug, info, warn, error, fatal, panic)",
				Destination: &flags.LogLevel,
			},
			&cli.BoolFlag{
				Name:        "log-pretty",
				Usage:       "human-readable console logs",
				Destination: &flags.LogPretty,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if flags.EnvFile == "" {
				return ctx, nil
			}
			if err := godotenv.Load(flags.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return ctx, fmt.Errorf("load %s: %w", flags.EnvFile, err)
			}
			return ctx, nil
		},
	}

	app = NewServeCmd(flags).Register(app)
	app = NewMigrateCmd(flags).Register(app)
	app = NewTokenCmd(flags).Register(app)
	return app
}
