package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/flowdesk/internal/config"
	"github.com/Sternrassler/flowdesk/pkg/client"
	"github.com/Sternrassler/flowdesk/pkg/logging"
	"github.com/Sternrassler/flowdesk/pkg/metrics"
	"github.com/Sternrassler/flowdesk/pkg/session"
)

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  zerolog.Logger
	redis   *redis.Client
	session *session.Session
	api     *client.Client
	metrics *metrics.Server
}

func execute(ctx context.Context, args []string) int {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{v: config.NewViper()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if terr := a.teardown(ctx); terr != nil {
		fmt.Fprintln(stderr, "Warning:", terr)
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", explain(err))
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "flowdesk",
		Short:         "Administer customers, vendors, workgroups, roles and tasks of the workflow API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	if err := config.RegisterFlags(root.PersistentFlags(), a.v); err != nil {
		panic(err)
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newCustomersCmd(a),
		newVendorsCmd(a),
		newWorkgroupsCmd(a),
		newRolesCmd(a),
		newUsersCmd(a),
		newTasksCmd(a),
	)
	return root
}

// setup resolves the configuration and opens the session store. The API
// client is created on first use so local commands work offline.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	a.logger = log.With().Str("component", "cli").Logger()
	if cfg.File != "" {
		a.logger.Debug().Str("file", cfg.File).Msg("Using config file")
	}

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Serve(cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("start metrics endpoint: %w", err)
		}
		a.metrics = srv
	}

	if cfg.RedisURL != "" {
		if err := a.connectRedis(cmd.Context()); err != nil {
			if cfg.CredentialStore == config.StoreRedis {
				return err
			}
			a.logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		}
	}

	store, err := a.store()
	if err != nil {
		return err
	}
	a.session = session.New(store)
	return nil
}

func (a *app) connectRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse %s: %w", config.KeyRedisURL, err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	a.logger.Debug().Str("addr", opts.Addr).Msg("Connected to Redis")
	a.redis = rdb
	return nil
}

func (a *app) store() (session.Store, error) {
	switch a.cfg.CredentialStore {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StoreRedis:
		return session.NewRedisStore(a.redis, a.cfg.Profile), nil
	default:
		path, err := a.cfg.CredentialPath()
		if err != nil {
			return nil, err
		}
		return session.NewFileStore(path), nil
	}
}

// client returns the API client, creating it on first use.
func (a *app) client() (*client.Client, error) {
	if a.api != nil {
		return a.api, nil
	}
	if err := a.cfg.RequireAPI(); err != nil {
		return nil, err
	}

	cfg := client.DefaultConfig(a.cfg.BaseURL, a.cfg.UserAgent)
	cfg.Session = a.session
	cfg.Redis = a.redis
	cfg.MaxRetries = a.cfg.MaxRetries
	cfg.MaxConcurrency = a.cfg.MaxConcurrency
	cfg.Timeout = a.cfg.Timeout

	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	a.api = c
	return c, nil
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		errs = append(errs, a.metrics.Shutdown(shutdownCtx))
		a.metrics = nil
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	return errors.Join(errs...)
}

// explain turns API errors into operator-facing messages.
func explain(err error) error {
	switch {
	case errors.Is(err, session.ErrNoCredential), errors.Is(err, session.ErrCredentialExpired):
		return fmt.Errorf("%w: run 'flowdesk login'", err)
	case client.IsUnauthorized(err):
		return fmt.Errorf("%w: session rejected, run 'flowdesk login'", err)
	default:
		return err
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
