package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/collabspace-server/internal/app"
	"github.com/vovakirdan/collabspace-server/internal/config"
	"github.com/vovakirdan/collabspace-server/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath string
	flagAddr   string
	flagLevel  string
	flagFormat string
	flagDB     string
)

var rootCmd = &cobra.Command{
	Use:           "collabspace",
	Short:         "Workspace collaboration server",
	Long:          "collabspace serves accounts, friends and shared workspaces with a live-synced notepad over REST and WebSocket.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&flagLevel, "log-level", "", "log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&flagFormat, "log-format", "", "log format (console, json)")
	serveCmd.Flags().StringVar(&flagDB, "db", "", "SQLite database path")

	rootCmd.AddCommand(serveCmd, versionCmd)
}

// flagOverrides collects the serve flags; unset flags stay zero and leave the loaded value alone.
func flagOverrides() config.Config {
	return config.Config{
		Addr:         flagAddr,
		LogLevel:     flagLevel,
		LogFormat:    flagFormat,
		DatabasePath: flagDB,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	bootLogger := log.New("info", "console")

	cfg, usedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg.UpdateFrom(flagOverrides())

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", usedPath).Str("version", version).Msg("configuration loaded")
	if cfg.JWTSecret == config.Default().JWTSecret {
		logger.Warn().Msg("jwt_secret is the default value, set COLLABSPACE_JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting collabspace server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
