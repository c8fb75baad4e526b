package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/commands"
	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/session"
	"github.com/ritchy/BytePass/internal/client/storage"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	cfg   *config.Config
	sess  *session.Session
	files *storage.FileStore

	configPath string
	dataDir    string
	verbose    bool
	format     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bytepass",
	Short: "BytePass - a password manager that syncs through your own storage",
	Long: `BytePass keeps your accounts in local JSON files and synchronizes them
with a remote file store (a bbolt file or an S3 bucket). Records are merged
one by one; the copy with the newer last_updated wins.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		if cmd.Flags().Changed("format") {
			cfg.Format = format
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		if cfg.Verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.InfoLevel)
		}

		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    false,
		})

		if err := cfg.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}

		files, err = storage.NewFileStore(cfg.DataDir, logrus.StandardLogger())
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		sess, err = session.Load(cmd.Context(), files, logrus.StandardLogger())
		if err != nil {
			if cmd.Annotations[commands.SkipSessionAnnotation] != "" {
				logrus.WithError(err).Debug("session unavailable")
				return nil
			}
			return fmt.Errorf("failed to load session: %w; run 'bytepass reset settings' if settings.json is corrupt", err)
		}

		logrus.Debugf("Configuration loaded: data_dir=%s, backend=%s, format=%s", cfg.DataDir, cfg.Remote.Backend, cfg.Format)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: $HOME/.bytepass/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: $HOME/.bytepass)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")

	rootCmd.PersistentFlags().Lookup("data-dir").Usage = "Data directory [env: BYTEPASS_DATA_DIR]"
	rootCmd.PersistentFlags().Lookup("format").Usage = "Output format [env: BYTEPASS_FORMAT]"

	addCommands()
}

// addCommands adds all subcommands to the root command
func addCommands() {
	// Use closures to provide lazy access to cfg, sess and files
	getCfg := func() *config.Config { return cfg }
	getSess := func() *session.Session { return sess }
	getFiles := func() (*storage.FileStore, error) {
		if files == nil {
			return nil, fmt.Errorf("storage not initialized")
		}
		return files, nil
	}

	rootCmd.AddCommand(commands.NewAccountCommands(getCfg, getFiles)...)
	rootCmd.AddCommand(commands.NewSyncCommand(getCfg, getSess, getFiles))
	rootCmd.AddCommand(commands.NewDiffCommand(getCfg, getSess, getFiles))
	rootCmd.AddCommand(commands.NewAuthCommands(getCfg, getSess))
	rootCmd.AddCommand(commands.NewKeyCommands(getCfg, getFiles))
	rootCmd.AddCommand(commands.NewAccessCommands(getCfg, getSess, getFiles))
	rootCmd.AddCommand(commands.NewJournalCommand(getCfg))
	rootCmd.AddCommand(commands.NewResetCommand(getFiles))
	rootCmd.AddCommand(commands.NewVersionCommand(getCfg, version, commit, buildDate))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
