package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexhover/internal/config"
	"github.com/ziadkadry99/lexhover/internal/credentials"
)

var initSkipKeys bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lexhover configuration with an interactive wizard",
	Long: `Runs an interactive wizard to configure lexhover and writes a
.lexhover.yml file, then asks for the OpenAI and Tavily API keys.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard(cfgFile, appCfg, config.TerminalAsker{}, os.Stdout)
		if err != nil {
			return err
		}
		appCfg = cfg

		if initSkipKeys {
			return nil
		}

		fmt.Println()
		store, closeStore, err := openRawKeyStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		return credentials.RunForm(cmd.Context(), store, credentials.TerminalPrompter{}, os.Stdout)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initSkipKeys, "skip-keys", false, "do not ask for API keys")
	rootCmd.AddCommand(initCmd)
}
