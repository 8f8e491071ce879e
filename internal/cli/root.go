// Package cli wires the connect, folder, and sharing operations into a
// command-line surface for operating and debugging the integration.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/appmechanic/driveconnect/internal/config"
	"github.com/appmechanic/driveconnect/internal/credentials"
	"github.com/appmechanic/driveconnect/internal/facade"
	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/appmechanic/driveconnect/internal/utils"
	"github.com/appmechanic/driveconnect/pkg/version"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagUser    string
	flagStore   string
	flagDBPath  string
	flagVerbose bool
	flagQuiet   bool
	flagNoColor bool
	flagJSON    bool

	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "driveconnect",
	Short: "Per-user Google Drive integration client",
	Long: `driveconnect manages delegated Google Drive access for application
users: connecting accounts, building folder hierarchies, sharing, and
cleanup. Credentials are stored per user and refreshed lazily.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logging.INFO
		if flagVerbose {
			level = logging.DEBUG
		}
		if flagQuiet {
			level = logging.ERROR
		}
		logger = logging.NewConsoleLogger(logging.ConsoleLoggerConfig{
			Level:            level,
			ColorEnabled:     !flagNoColor,
			TimestampEnabled: true,
			RedactSensitive:  true,
		})
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Application user id to act as")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "auto", "Credential store backend (auto, keyring, sqlite)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the sqlite credential database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable color output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output results as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(defaultFolderCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(unshareCmd)
}

// newApp loads configuration and builds the facade over the selected
// credential store
func newApp() (*facade.Facade, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	store, err := newUserStore()
	if err != nil {
		return nil, err
	}

	return facade.New(cfg, store, logger), nil
}

func newUserStore() (credentials.UserStore, error) {
	switch flagStore {
	case "keyring":
		return credentials.NewKeyringUserStore(), nil
	case "sqlite":
		return openSQLiteStore()
	case "auto":
		kr := credentials.NewKeyringUserStore()
		if kr.Available() {
			return kr, nil
		}
		return openSQLiteStore()
	default:
		return nil, utils.NewOpError(utils.ErrCodeConfigError,
			fmt.Sprintf("unknown store backend: %s", flagStore)).Err()
	}
}

func openSQLiteStore() (credentials.UserStore, error) {
	path := flagDBPath
	if path == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return nil, utils.NewOpError(utils.ErrCodeConfigError, err.Error()).WithCause(err).Err()
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, utils.NewOpError(utils.ErrCodeConfigError, err.Error()).WithCause(err).Err()
		}
		path = filepath.Join(dir, "credentials.db")
	}
	return credentials.OpenSQLiteUserStore(path)
}

func requireUser() (string, error) {
	if flagUser == "" {
		return "", utils.NewOpError(utils.ErrCodeInvalidArgument, "--user is required").Err()
	}
	return flagUser, nil
}

// runForUser loads the facade, resolves the user's client, runs fn, and
// flushes pending credential writes before returning
func runForUser(fn func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Sessions().Flush()

	ctx := context.Background()
	client, err := app.ForUser(ctx, userID)
	if err != nil {
		return err
	}

	return fn(ctx, app, client)
}

// Execute runs the root command and exits with the stable code mapped
// from the failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(utils.GetExitCode(utils.CodeOf(err)))
	}
}
