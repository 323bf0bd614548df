package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/config"
)

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "knn",
		Short:         "Approximate nearest-neighbor search over dense vectors",
		Long:          `knn stores dense vectors and answers top-n nearest-neighbor queries with a random-projection index.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServerCmd(),
		newAddCmd(),
		newSearchCmd(),
		newImportCmd(),
		newBenchCmd(),
		newStatusCmd(),
		newVersionCmd(version),
	)
	return rootCmd
}

// commandEnv is the config and logger every subcommand starts from.
type commandEnv struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	debug      bool
}

func setup(cmd *cobra.Command) (*commandEnv, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debugFlag, _ := cmd.Flags().GetBool("debug")

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, debug, err := newLogger(cfg, debugFlag)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	return &commandEnv{cfg: cfg, configPath: resolved, logger: logger, debug: debug}, nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "knn version %s\n", version)
		},
	}
}
