package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/sortinghat/internal/config"
	"github.com/JonMunkholm/sortinghat/internal/core"
	"github.com/JonMunkholm/sortinghat/internal/logging"
	"github.com/JonMunkholm/sortinghat/internal/output"
)

// app carries state shared by all commands.
type app struct {
	v          *viper.Viper
	configFile string
	envFile    string
	format     string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "sortinghat",
		Short: "Infer feature types for tabular data",
		Long: `sortinghat assigns each column of a dataset a raw type and optional
special types by reconciling a column-type classifier with default
type inference.

Settings come from flags, environment variables (the same names the
server uses, e.g. INFERENCE_CLASSIFIER), a .env file, and an optional
.sortinghat.yaml config file, in that order of precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./.sortinghat.yaml or $HOME/.sortinghat.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load if present")
	flags.StringVarP(&a.format, "output", "o", "", "output format: table, json, yaml (default: table on a terminal, json otherwise)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("database-url", "", "PostgreSQL connection string")
	mustBind(a.v, "LOG_LEVEL", flags.Lookup("log-level"))
	mustBind(a.v, "DATABASE_URL", flags.Lookup("database-url"))

	root.AddCommand(
		a.newInferCmd(),
		a.newClassifiersCmd(),
		a.newRunsCmd(),
	)
	return root
}

// setup loads configuration and logging before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.SetConfigName(".sortinghat")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
	}
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.LoadWith(func(key string) string {
		return a.v.GetString(strings.ToLower(key))
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(a.logger)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Info("using config file", "path", used)
	}
	return nil
}

// mustBind ties a flag to the configuration key read by config.LoadWith.
func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(strings.ToLower(key), flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag.Name, err))
	}
}

// write renders data in the selected output format.
func (a *app) write(cmd *cobra.Command, data any) error {
	format, err := output.ParseFormat(a.format)
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
}

// newService builds an inference service recording runs in store.
func (a *app) newService(store core.RunStore) *core.Service {
	return core.NewService(store, a.cfg.ServiceConfig(), a.logger)
}
