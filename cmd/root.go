package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/config"
	"github.com/ziadkadry99/lexhover/internal/logging"
)

var (
	cfgFile string
	verbose bool

	appCfg *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "lexhover",
	Short: "Legal term highlighting and on-demand definitions",
	Long: `lexhover finds legal terms and statute citations in web pages and
documents, highlights them, and resolves their definitions through a local
glossary, a dictionary service, a language model, and web search.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w\nRun `lexhover init` to create a config file", err)
		}
		appCfg = cfg

		l, err := logging.New(verbose, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
