package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/discovergy/config"
	"github.com/s0up4200/discovergy/discovergy"
)

// skipInit marks commands that run without config or a Discovergy session
const skipInit = "skipInit"

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *discovergy.Client

	// Command flags
	outputFormat string
	filterExpr   string
	preset       string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "discovergy",
	Short: "Read meters and measurements from the Discovergy smart meter API",
	Long: `discovergy is a CLI for the Discovergy smart meter API. It performs the
OAuth 1.0a login with your account credentials and reads meters, field names,
readings, disaggregation estimates and activities.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table or json (overrides config)")

	rootCmd.AddCommand(metersCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(readingCmd)
	rootCmd.AddCommand(readingsCmd)
	rootCmd.AddCommand(disaggregationCmd)
	rootCmd.AddCommand(activitiesCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// initializeApp loads the configuration, creates the client and logs in
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipInit] == "true" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging, os.Stderr)

	if cmd.Flags().Changed("output") {
		switch outputFormat {
		case "table", "json":
			cfg.Output.Format = outputFormat
		default:
			return fmt.Errorf("invalid output format: %s", outputFormat)
		}
	}

	client, err = discovergy.NewClient(cfg.Client.Name,
		discovergy.WithBaseURL(cfg.Client.BaseURL),
		discovergy.WithTimeout(cfg.Client.Timeout),
		discovergy.WithLogger(logger),
		discovergy.WithDebugLogging(cfg.Client.Debug),
	)
	if err != nil {
		return fmt.Errorf("failed to create Discovergy client: %w", err)
	}

	if err := client.Login(cmd.Context(), cfg.Account.Email, cfg.Account.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !colorEnabled(cfg.Color, out),
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// colorEnabled reports whether console output to w should be colored
func colorEnabled(wanted bool, w io.Writer) bool {
	if !wanted {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// getFilterExpression determines the filter expression to use.
// Priority: command line filter > preset > default. An empty result selects all meters.
func getFilterExpression() (string, error) {
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expr, ok := cfg.Filter.Presets[strings.ToLower(preset)]; ok {
			return expr, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return cfg.Filter.DefaultExpression, nil
}

func newPrinter(w io.Writer) *printer {
	format := "table"
	if cfg != nil {
		format = cfg.Output.Format
	}
	return &printer{w: w, format: format}
}
