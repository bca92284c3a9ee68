package main

import (
	"context"
	"os"

	"github.com/bambi/overwatch/pkg/logger"
	"github.com/bambi/overwatch/pkg/presenter"
	"github.com/bambi/overwatch/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.SetEnvPrefix("OVERWATCH")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.overwatch")
	viper.AddConfigPath(".")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("color", "auto")
	viper.SetDefault("journal.enabled", true)
	viper.SetDefault("journal.path", "")
}

var (
	out             = presenter.New()
	shutdownTracing telemetry.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "overwatch",
	Short: "Install runtime hooks into a simulated launcher",
	Long: `overwatch loads a simulated launcher app, installs the overwatch module's
hooks into it and drives it, reporting every hook that could not be installed
or removed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return errors.Wrap(err, "failed to read config")
			}
		}

		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return errors.Wrap(err, "invalid log level")
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		logger.SetLogOutput(os.Stderr)

		out = presenter.NewWithOptions(os.Stdout, os.Stderr, presenter.ParseColorMode(viper.GetString("color")))
		out.SetQuiet(viper.GetBool("quiet"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("tracing disabled")
			return nil
		}
		shutdownTracing = shutdown
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().String("color", "auto", "Color output (auto, always, never)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print errors")
	rootCmd.PersistentFlags().Bool("no-journal", false, "Do not record diagnostics in the database")
	rootCmd.PersistentFlags().String("db", "", "Path of the diagnostics database")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("journal.disabled", rootCmd.PersistentFlags().Lookup("no-journal"))
	viper.BindPFlag("journal.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(withTracing(runCmd))
	rootCmd.AddCommand(withTracing(methodsCmd))
	rootCmd.AddCommand(withTracing(diagCmd))
	rootCmd.AddCommand(versionCmd)

	ctx := context.Background()
	err := rootCmd.ExecuteContext(ctx)
	if shutdownTracing != nil {
		if serr := shutdownTracing(ctx); serr != nil {
			logger.G(ctx).WithError(serr).Warn("failed to flush traces")
		}
	}
	if err != nil {
		out.Error(err, "")
		os.Exit(1)
	}
}
