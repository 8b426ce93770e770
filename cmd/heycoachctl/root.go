package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/heycoach-api/internal/config"
	"github.com/noah-isme/heycoach-api/internal/database"
	"github.com/noah-isme/heycoach-api/internal/logging"
)

// env carries the connections a command needs. Redis and NATS are optional.
type env struct {
	cfg    config.Config
	logger zerolog.Logger
	db     *gorm.DB
	redis  *redis.Client
	nats   *nats.Conn
	valid  *validator.Validate
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.nats != nil {
		e.nats.Close()
	}
	if e.db != nil {
		if sqlDB, err := e.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "heycoachctl",
		Short:         "Operator tooling for the Hey Coach API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("database-url", "", "Database URL (overrides HEYCOACH_DATABASE_URL)")
	root.PersistentFlags().Duration("timeout", 2*time.Minute, "Maximum run time of the command")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newSweepOverdueCmd())
	return root
}

// setup loads configuration and opens the database. Brokers are connected only
// when withBrokers is set so notifications reach running API processes.
func setup(cmd *cobra.Command, withBrokers bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if override, _ := cmd.Flags().GetString("database-url"); override != "" {
		cfg.DatabaseURL = override
	}

	e := &env{
		cfg:    cfg,
		logger: logging.New(cfg).With().Str("command", cmd.Name()).Logger(),
		valid:  validator.New(validator.WithRequiredStructEnabled()),
	}

	e.db, err = database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if withBrokers {
		if cfg.RedisURL != "" {
			if e.redis, err = database.ConnectRedis(cfg.RedisURL); err != nil {
				e.Close()
				return nil, err
			}
		}
		if cfg.NATSURL != "" {
			if e.nats, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName+"-ctl"); err != nil {
				e.Close()
				return nil, err
			}
		}
	}

	return e, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return context.WithTimeout(cmd.Context(), timeout)
}
