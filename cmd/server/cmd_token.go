package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/tbourn/go-dm-backend/internal/auth"
	"github.com/tbourn/go-dm-backend/internal/repo"
	"github.com/tbourn/go-dm-backend/internal/sysutil"
)

// TokenCmd signs bearer tokens with the configured secret, for local
// development and smoke tests. Accounts are owned by another system; the
// command only checks that the user exists and is activated.
type TokenCmd struct {
	flags  *Flags
	userID string
	email  string
	ttl    time.Duration
	force  bool
}

func NewTokenCmd(flags *Flags) *TokenCmd {
	return &TokenCmd{flags: flags}
}

func (cmd *TokenCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "token",
		Usage:     "Sign a bearer token for a user",
		UsageText: "server token --user <id> [--ttl 24h]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "user id (token subject)",
				Required:    true,
				Destination: &cmd.userID,
			},
			&cli.StringFlag{
				Name:        "email",
				Usage:       "email claim (defaults to the stored email)",
				Destination: &cmd.email,
			},
			&cli.DurationFlag{
				Name:        "ttl",
				Usage:       "token lifetime",
				Value:       24 * time.Hour,
				Destination: &cmd.ttl,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "sign even when the user is unknown or not activated",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *TokenCmd) run(ctx context.Context, c *cli.Command) error {
	cfg, err := cmd.flags.loadConfig()
	if err != nil {
		return err
	}
	if cmd.ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	email := cmd.email
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	u, err := repo.FindUserByID(ctx, db, cmd.userID)
	switch {
	case err == nil && u.Activated():
		email = sysutil.FirstNonEmpty(email, u.Email)
	case cmd.force:
		log.Warn().Err(err).Str("user_id", cmd.userID).Msg("signing for unknown or inactive user")
	case err == nil:
		return fmt.Errorf("user %q is not activated", cmd.userID)
	default:
		return fmt.Errorf("lookup user %q: %w", cmd.userID, err)
	}

	tok, err := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Sign(cmd.userID, email, cmd.ttl)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	_, err = fmt.Fprintln(c.Root().Writer, tok)
	return err
}
