// Package cmd implements the krakenex command line.
package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"krakenex/internal/keyring"
	"krakenex/pkg/core"
	"krakenex/pkg/session"
)

// EnvPrefix namespaces environment overrides, e.g. KRAKENEX_TIER=pro.
const EnvPrefix = "KRAKENEX"

// app carries state shared by all subcommands of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	logger zerolog.Logger
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "krakenex",
		Short: "Query the Kraken REST API within the account's call rate limits",
		Long: `krakenex queries public market data and private account history from Kraken.

Every call goes through the rate governor for the configured verification tier.
Credentials come from --key-file, or from KRAKEN_API_KEY and KRAKEN_API_SECRET
(optionally loaded with --env-file).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("env-file", "", "load environment variables from a dotenv file")
	flags.String("key-file", "", "key file with key= and secret= lines, or a directory holding "+keyring.DefaultFile)
	flags.String("tier", "none", "account verification tier: none|starter|intermediate|pro")
	flags.String("base-url", core.DefaultBaseURL, "API base URL")
	flags.Duration("timeout", 30*time.Second, "HTTP request timeout")
	flags.Int("max-attempts", 3, "calls made per request while the server reports rate limits")
	flags.Duration("backoff", time.Second, "base of the exponential backoff between rate limited attempts")
	flags.String("log-level", "warn", "log level: debug|info|warn|error")
	flags.StringP("output", "o", "table", "output format: table|json")

	_ = a.v.BindPFlags(flags)
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.timeCmd(),
		a.statusCmd(),
		a.tickerCmd(),
		a.ohlcCmd(),
		a.balanceCmd(),
		a.ledgersCmd(),
		a.tradesCmd(),
		a.walletCmd(),
		a.limitsCmd(),
	)
	return root
}

// Execute runs the command line with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.out = cmd.OutOrStdout()

	if envFile := a.v.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	if cfgFile := a.v.GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	switch format := a.v.GetString("output"); format {
	case "table", "json":
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}

func (a *app) config() (*core.Config, error) {
	tier, err := core.ParseTier(a.v.GetString("tier"))
	if err != nil {
		return nil, err
	}

	config := core.DefaultConfig().
		WithTier(tier).
		WithBaseURL(a.v.GetString("base-url")).
		WithTimeout(a.v.GetDuration("timeout")).
		WithRateLimitRetry(a.v.GetInt("max-attempts"), a.v.GetDuration("backoff"))
	config.LogLevel = a.v.GetString("log-level")

	key, err := a.credentials()
	if err != nil {
		return nil, err
	}
	if key != nil {
		a.logger.Debug().Stringer("key", key).Msg("using credentials")
		config.WithCredentials(key.Credentials())
	}
	return config, nil
}

func (a *app) credentials() (*keyring.APIKey, error) {
	if path := a.v.GetString("key-file"); path != "" {
		return keyring.Load(path)
	}
	return keyring.FromEnv()
}

func (a *app) session() (*session.Session, error) {
	config, err := a.config()
	if err != nil {
		return nil, err
	}
	return session.New(config, session.WithLogger(a.logger))
}

// withSession opens a session for the duration of run.
func (a *app) withSession(run func(s *session.Session) error) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	defer func() {
		m := s.Metrics()
		a.logger.Debug().
			Int64("calls", m.GatedCalls).
			Int64("waited", m.WaitedCalls).
			Int64("retries", m.Retries).
			Msg("session closed")
		_ = s.Close()
	}()
	return run(s)
}
