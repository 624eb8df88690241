package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolrent-cli/api"
	"toolrent-cli/config"
	"toolrent-cli/logging"
	"toolrent-cli/session"
	"toolrent-cli/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var (
	outputJSON    bool
	outputCompact bool
	configFile    string

	cfg      = config.Default()
	logger   = zerolog.Nop()
	client   = api.NewClient()
	sessions = session.NewStore(storage.FileSession{}, zerolog.Nop())

	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
	now              = time.Now

	closers []io.Closer
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolrent",
		Short: "Tool rental marketplace client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON && outputCompact {
				return fmt.Errorf("choose either --json or --compact")
			}
			return setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVar(&outputCompact, "compact", false, "Output compact text")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/toolrent/config.yaml)")

	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(rentCmd())
	rootCmd.AddCommand(rentalsCmd())
	rootCmd.AddCommand(reservationsCmd())
	rootCmd.AddCommand(adminCmd())
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	teardown()
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Session cleared. Run 'toolrent auth login' to sign in again.")
		}
		os.Exit(1)
	}
}

func setup() error {
	path := configFile
	if path == "" {
		defaultPath, err := storage.ConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	log, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	logger = log
	if closer != nil {
		closers = append(closers, closer)
	}

	sessions = session.NewStore(storage.FileSession{}, logger)
	sessions.Subscribe(func(e session.Event) {
		client.AccessToken = e.Session.Token
		logger.Debug().Str("event", string(e.Type)).Msg("session changed")
	})

	client = api.NewClient()
	client.BaseURL = cfg.API.BaseURL
	client.HTTP.Timeout = cfg.API.Timeout
	client.Logger = logger
	client.AccessToken = sessions.Current().Token
	client.OnUnauthorized = func() {
		if err := sessions.Logout(); err != nil {
			logger.Warn().Err(err).Msg("clear session after 401/403")
		}
	}
	if cfg.API.RateLimit.RPS > 0 {
		client.Limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimit.RPS), cfg.API.RateLimit.Burst)
	}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		client.UseRedisCache(rdb, cfg.Cache.TTL)
		closers = append(closers, rdb)
	}
	return nil
}

func teardown() {
	for _, c := range closers {
		_ = c.Close()
	}
	closers = nil
}
