package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/billing-sync/db"
	"github.com/vpnda/billing-sync/pkg/config"
	"github.com/vpnda/billing-sync/pkg/services"
	"github.com/vpnda/billing-sync/pkg/utils"
)

type rootOptions struct {
	configPath string
	dbPath     string
	output     string
	verbose    bool
	debugHTTP  bool
}

var rootCmd *cobra.Command

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	rootCmd = newRootCmd()
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("Error getting home directory, run history is disabled")
		return ""
	}
	return filepath.Join(homeDir, ".billing-sync", "runs.db")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "billing-sync",
		Short: "Fetch CRM deals and accounting invoices",
		Long: `billing-sync pulls deals from HubSpot and invoices from Xero for the billing dashboard.

Credentials are read from the configuration file and can be overridden with the
HUBSPOT_ACCESS_TOKEN, XERO_CLIENT_ID and XERO_CLIENT_SECRET environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if opts.verbose || opts.debugHTTP {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)

			if err := validateOutput(opts.output); err != nil {
				return err
			}

			if err := config.InitGlobalConfig(opts.configPath); err != nil {
				// GetConfig writes a default file later on
				if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				log.Debug().Str("path", opts.configPath).Msg("No configuration file, a default one will be created")
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultConfigPath, "Path to the YAML configuration file")
	flags.StringVar(&opts.dbPath, "db", defaultDBPath(), "Path to the SQLite run history, empty to disable")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "Output format: table, json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&opts.debugHTTP, "debug-http", false, "Dump HTTP requests and responses to the log")

	cmd.AddCommand(
		newDealsCmd(opts),
		newInvoicesCmd(opts),
		newOverdueCmd(opts),
		newChatCmd(),
		newHistoryCmd(opts),
		newConfigCmd(),
	)
	return cmd
}

// openRecorder opens the run history. History is best effort for fetch
// commands, so a database that cannot be opened only disables it.
func openRecorder(opts *rootOptions) (*services.FetchRecorder, func()) {
	if opts.dbPath == "" {
		return services.NewFetchRecorder(nil), func() {}
	}

	database, err := openDatabase(opts.dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", opts.dbPath).Msg("Run history unavailable")
		return services.NewFetchRecorder(nil), func() {}
	}
	return services.NewFetchRecorder(database), func() {
		if err := database.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing database")
		}
	}
}

func openDatabase(path string) (*db.DB, error) {
	database, err := db.New(path)
	if err != nil {
		return nil, err
	}
	if err := database.Initialize(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		Long:  `Show the current configuration, with secrets masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}

// showConfig displays the current configuration
func showConfig(w io.Writer) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "HubSpot Access Token: %s\n", orNotSet(utils.MaskSecret(cfg.HubSpot.AccessToken)))
	fmt.Fprintf(w, "HubSpot Currency:     %s\n", orNotSet(cfg.HubSpot.Currency))
	if cfg.HubSpot.BaseURL != "" {
		fmt.Fprintf(w, "HubSpot Base URL:     %s\n", cfg.HubSpot.BaseURL)
	}
	fmt.Fprintf(w, "Xero Client ID:       %s\n", orNotSet(utils.MaskSecret(cfg.Xero.ClientID)))
	fmt.Fprintf(w, "Xero Client Secret:   %s\n", orNotSet(utils.MaskSecret(cfg.Xero.ClientSecret)))

	if cfg.HubSpot.AccessToken == "" || cfg.Xero.ClientID == "" || cfg.Xero.ClientSecret == "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Set missing credentials in the configuration file or through %s, %s and %s.\n",
			config.EnvHubSpotAccessToken, config.EnvXeroClientID, config.EnvXeroClientSecret)
	}
	return nil
}
